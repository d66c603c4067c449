package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropic_Generate(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicBlock{{Type: "text", Text: "Looks layered.\nScore=0.9"}},
			Usage:   anthropicUsage{InputTokens: 100, OutputTokens: 10},
		})
	}))
	defer server.Close()

	a, err := NewAnthropic("claude-sonnet-4-20250514", Options{APIKey: "test-key", HTTPClient: rewriteClient(server.URL)})
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), GenerateRequest{Prompt: "evaluate", MaxTokens: 800, Temperature: 0.4})
	require.NoError(t, err)
	assert.Equal(t, "Looks layered.\nScore=0.9", resp.Content)
	assert.Equal(t, 110, resp.TokensUsed)

	assert.Equal(t, 800, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.4, *got.Temperature, 1e-9)
	assert.Equal(t, []anthropicMessage{{Role: "user", Content: "evaluate"}}, got.Messages)
	assert.Empty(t, got.System)
}

func TestAnthropic_AuthError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	a, err := NewAnthropic("m", Options{APIKey: "bad", HTTPClient: rewriteClient(server.URL)})
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, 1, attempts, "auth errors are not retried")
}

func TestAnthropic_ServerErrorRetried(t *testing.T) {
	fastRetries(t)
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(500)
			return
		}
		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicBlock{{Type: "text", Text: "ok"}}})
	}))
	defer server.Close()

	a, err := NewAnthropic("m", Options{APIKey: "k", HTTPClient: rewriteClient(server.URL)})
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, attempts)
}

func TestAnthropic_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicBlock{}})
	}))
	defer server.Close()

	a, err := NewAnthropic("m", Options{APIKey: "k", HTTPClient: rewriteClient(server.URL)})
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	assert.Error(t, err)
}

func TestNewAnthropic_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropic("m", Options{})
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}
