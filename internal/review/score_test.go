package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ScoreResult
	}{
		{"trailing decimal", "... conclusión final. Score=0.85", ScoreResult{Value: 0.85, Found: true}},
		{"missing", "no score here", ScoreResult{Value: 0, Found: false}},
		{"spaces", "Score = 0.4\n", ScoreResult{Value: 0.4, Found: true}},
		{"integer", "Score=1", ScoreResult{Value: 1, Found: true}},
		{"first match wins", "Score=0.2 then Score=0.9", ScoreResult{Value: 0.2, Found: true}},
		{"not at the end", "Score=0.6\nMore notes follow.", ScoreResult{Value: 0.6, Found: true}},
		{"clamped high", "Score=85", ScoreResult{Value: 1, Found: true}},
		{"non numeric", "Score=high", ScoreResult{Value: 0, Found: false}},
		{"lowercase ignored", "score=0.5", ScoreResult{Value: 0, Found: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractScore(tt.text)
			assert.Equal(t, tt.want.Found, got.Found)
			assert.InDelta(t, tt.want.Value, got.Value, 1e-9)
		})
	}
}

func TestExtractScoreWithDefault(t *testing.T) {
	got := ExtractScoreWithDefault("nothing", 0.5)
	assert.Equal(t, ScoreResult{Value: 0.5, Found: false}, got)

	got = ExtractScoreWithDefault("Score=0", 0.5)
	assert.Equal(t, ScoreResult{Value: 0, Found: true}, got)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"recommend_only": ModeRecommendOnly,
		"RECOMMEND_ONLY": ModeRecommendOnly,
		"":               ModeRecommendOnly,
		"enforce":        ModeEnforce,
		" ENFORCE ":      ModeEnforce,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("block")
	assert.Error(t, err)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		score ScoreResult
		mode  Mode
		want  Action
	}{
		{"enforce below", ScoreResult{Value: 0.5, Found: true}, ModeEnforce, ActionWouldBlock},
		{"recommend below", ScoreResult{Value: 0.5, Found: true}, ModeRecommendOnly, ActionNone},
		{"enforce at threshold", ScoreResult{Value: 0.7, Found: true}, ModeEnforce, ActionNone},
		{"enforce above", ScoreResult{Value: 0.9, Found: true}, ModeEnforce, ActionNone},
		{"enforce missing score", ScoreResult{Value: 0, Found: false}, ModeEnforce, ActionWouldBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.score, 0.7, tt.mode)
			assert.Equal(t, tt.want, d.Action)
			assert.InDelta(t, tt.score.Value, d.Score, 1e-9)
			assert.InDelta(t, 0.7, d.Threshold, 1e-9)
			assert.Equal(t, tt.mode, d.Mode)
		})
	}
}
