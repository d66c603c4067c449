package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/archcheck/internal/config"
	"github.com/dshills/archcheck/internal/providers"
	"github.com/dshills/archcheck/internal/review"
)

type stubEvaluator struct {
	report *review.Report
	err    error
	got    review.Request
}

func (s *stubEvaluator) Evaluate(_ context.Context, req review.Request) (*review.Report, error) {
	s.got = req
	return s.report, s.err
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, EvalPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validBody = `{
  "email": {"developer": "dev@example.com", "reviewer": "lead@example.com"},
  "diagram": "@startuml\nclass A\n@enduml",
  "code": [{"path": "a.go", "before": "", "after": "package a\n"}, {"before": "x", "after": "y"}],
  "feature": "add A"
}`

func TestEval_Success(t *testing.T) {
	eval := &stubEvaluator{report: &review.Report{
		Analysis: "Looks fine. Score=0.82",
		Score:    review.ScoreResult{Value: 0.82, Found: true},
		Decision: review.Decision{Action: review.ActionNone},
	}}
	rec := post(t, NewHandler(eval), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, Response{
		LeaderEmail:          "lead@example.com",
		DeveloperEmail:       "dev@example.com",
		ArchitectureAnalysis: "Looks fine. Score=0.82",
		Score:                0.82,
		ScoreFound:           true,
		Decision:             "NONE",
	}, resp)

	assert.Equal(t, "add A", eval.got.Feature)
	assert.Equal(t, "request", eval.got.Source)
	require.Len(t, eval.got.Changes, 2)
	assert.Equal(t, "unknown_file", eval.got.Changes[1].Path)
}

func TestEval_EmptyPayload(t *testing.T) {
	for _, body := range []string{"", "null", "{}", "not json", "[1,2]", `{"code": "oops"}`} {
		eval := &stubEvaluator{}
		rec := post(t, NewHandler(eval), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"No JSON payload received"}`, rec.Body.String(), body)
	}
}

func TestEval_GenerationError(t *testing.T) {
	eval := &stubEvaluator{err: errors.New("API error (status 500): boom")}
	rec := post(t, NewHandler(eval), validBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"API error (status 500): boom"}`, rec.Body.String())
}

func TestEval_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&stubEvaluator{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, EvalPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&stubEvaluator{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCORS(t *testing.T) {
	h := NewHandler(&stubEvaluator{})

	req := httptest.NewRequest(http.MethodOptions, EvalPath, nil)
	req.Header.Set("Origin", "https://review.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://review.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowedOrigins(t *testing.T) {
	h := NewHandler(&stubEvaluator{}, "https://review.example.com", " https://ci.example.com/ ")

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"listed preflight", http.MethodOptions, "https://review.example.com", http.StatusNoContent, "https://review.example.com"},
		{"trailing slash in config", http.MethodOptions, "https://ci.example.com", http.StatusNoContent, "https://ci.example.com"},
		{"case insensitive", http.MethodOptions, "https://REVIEW.example.com", http.StatusNoContent, "https://REVIEW.example.com"},
		{"unlisted preflight refused", http.MethodOptions, "https://evil.example.com", http.StatusForbidden, ""},
		{"unlisted simple request gets no header", http.MethodGet, "https://evil.example.com", http.StatusOK, ""},
		{"no origin gets no wildcard", http.MethodGet, "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/healthz", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_WildcardEntryAllowsAny(t *testing.T) {
	h := NewHandler(&stubEvaluator{}, "https://review.example.com", "*")
	req := httptest.NewRequest(http.MethodOptions, EvalPath, nil)
	req.Header.Set("Origin", "https://other.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://other.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

type cannedGenerator struct{ content string }

func (g cannedGenerator) Name() string { return "stub" }

func (g cannedGenerator) Generate(context.Context, providers.GenerateRequest) (providers.GenerateResponse, error) {
	return providers.GenerateResponse{Content: g.content}, nil
}

func TestEval_WithEngine(t *testing.T) {
	cfg := config.Default()
	cfg.RulesFile = ""
	cfg.RequirementsFile = ""
	cfg.Behavior = config.BehaviorEnforce
	engine, err := review.NewEngine(cfg, cannedGenerator{content: "Layering violated.\nScore=0.40"}, nil)
	require.NoError(t, err)

	rec := post(t, NewHandler(engine), validBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 0.40, resp.Score, 1e-9)
	assert.True(t, resp.ScoreFound)
	assert.Equal(t, "WOULD_BLOCK", resp.Decision)
}

func TestServer_RunShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := New(addr, &stubEvaluator{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestParsePayload_Diff(t *testing.T) {
	p, err := ParsePayload([]byte(`{"diff": "+// A -> B"}`))
	require.NoError(t, err)
	assert.Equal(t, "+// A -> B", p.Request().RawDiff)
	assert.Empty(t, p.Request().Changes)
}
