package review

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/archcheck/internal/providers"
)

func TestParseModelSpec(t *testing.T) {
	tests := []struct {
		spec     string
		provider string
		model    string
		wantErr  bool
	}{
		{"anthropic:claude-sonnet-4-20250514", "anthropic", "claude-sonnet-4-20250514", false},
		{"ollama:llama3:8b", "ollama", "llama3:8b", false},
		{"invalid", "", "", true},
		{":model", "", "", true},
		{"provider:", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		p, m, err := ParseModelSpec(tt.spec)
		if tt.wantErr {
			assert.Error(t, err, tt.spec)
			continue
		}
		require.NoError(t, err, tt.spec)
		assert.Equal(t, tt.provider, p)
		assert.Equal(t, tt.model, m)
	}
}

func TestEngine_Compare(t *testing.T) {
	cfg := testConfig(t)
	cfg.Behavior = "enforce"
	a := &stubGenerator{name: "openai", content: "Mostly fine. Score=0.8"}
	b := &stubGenerator{name: "anthropic", content: "Layer violation. Score=0.4"}
	c := &stubGenerator{name: "ollama", content: "No opinion."}

	e, err := NewEngine(cfg, nil, nil)
	require.NoError(t, err)

	report, err := e.Compare(context.Background(), testRequest(), []Target{
		{Model: "gpt-4o", Gen: a},
		{Model: "claude", Gen: b},
		{Model: "llama3", Gen: c},
	})
	require.NoError(t, err)

	require.Len(t, report.Models, 3)
	assert.Equal(t, "openai:gpt-4o", report.Models[0].Label)
	assert.Equal(t, "anthropic:claude", report.Models[1].Label)
	assert.False(t, report.Models[2].Score.Found)
	assert.Equal(t, "openai:gpt-4o,anthropic:claude,ollama:llama3", report.Model)

	assert.True(t, report.Score.Found)
	assert.InDelta(t, 0.6, report.Score.Value, 1e-9)
	assert.Equal(t, ActionWouldBlock, report.Decision.Action)
	assert.Contains(t, report.Analysis, "### anthropic:claude\n\nLayer violation.")

	assert.Equal(t, a.lastPrompt(), b.lastPrompt(), "every model sees the same prompt")
}

func TestEngine_CompareError(t *testing.T) {
	sentinel := errors.New("quota")
	e, err := NewEngine(testConfig(t), nil, nil)
	require.NoError(t, err)

	_, err = e.Compare(context.Background(), testRequest(), []Target{
		{Model: "m1", Gen: &stubGenerator{name: "openai", content: "Score=1"}},
		{Model: "m2", Gen: &stubGenerator{name: "gemini", err: sentinel}},
	})
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorContains(t, err, "gemini:m2")
}

func TestMeanScore_NoneFound(t *testing.T) {
	got := meanScore([]ModelResult{{}, {}}, 0.3)
	assert.Equal(t, ScoreResult{Value: 0.3, Found: false}, got)
}

// blockingGenerator waits for cancellation and counts how often it was called.
type blockingGenerator struct {
	calls *atomic.Int32
}

func (g blockingGenerator) Name() string { return "slow" }

func (g blockingGenerator) Generate(ctx context.Context, _ providers.GenerateRequest) (providers.GenerateResponse, error) {
	g.calls.Add(1)
	<-ctx.Done()
	return providers.GenerateResponse{}, ctx.Err()
}

func TestEngine_CompareCancelReleasesQueuedTargets(t *testing.T) {
	e, err := NewEngine(testConfig(t), nil, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	targets := make([]Target, maxConcurrency+3)
	for i := range targets {
		targets[i] = Target{Model: "m", Gen: blockingGenerator{calls: &calls}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for calls.Load() < maxConcurrency {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := e.Compare(ctx, testRequest(), targets)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Compare did not return after cancellation")
	}
	assert.LessOrEqual(t, calls.Load(), int32(maxConcurrency), "queued targets must not start after cancellation")
}
