package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/dshills/archcheck/internal/logger"
	"github.com/dshills/archcheck/internal/review"
)

// EvalPath is the route of the evaluation endpoint.
const EvalPath = "/api/v1/architecture-eval"

const (
	maxBodyBytes    = 10 << 20
	shutdownTimeout = 10 * time.Second
)

// Evaluator runs one evaluation. *review.Engine satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, req review.Request) (*review.Report, error)
}

// Response is the success body of the evaluation endpoint.
type Response struct {
	LeaderEmail          string  `json:"leaderEmail"`
	DeveloperEmail       string  `json:"developerEmail"`
	ArchitectureAnalysis string  `json:"architectureAnalysis"`
	Score                float64 `json:"score"`
	ScoreFound           bool    `json:"scoreFound"`
	Decision             string  `json:"decision"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server wraps an http.Server serving the evaluation API.
type Server struct {
	httpServer *http.Server
}

// New creates a server listening on addr. allowedOrigins is passed to
// NewHandler.
func New(addr string, eval Evaluator, allowedOrigins ...string) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h2c.NewHandler(NewHandler(eval, allowedOrigins...), &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until the server is shut down.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	logger.Info(ctx, "server listening", "addr", s.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// NewHandler returns the API routes wrapped in the CORS middleware.
// With no allowedOrigins, or with "*" among them, any origin is accepted.
// Otherwise only the listed origins receive CORS headers and preflight
// requests from other origins are refused with 403.
func NewHandler(eval Evaluator, allowedOrigins ...string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+EvalPath, evalHandler(eval))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok")
	})
	return cors(mux, allowedOrigins)
}

func evalHandler(eval Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: EmptyPayloadMessage})
			return
		}
		payload, err := ParsePayload(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: EmptyPayloadMessage})
			return
		}

		report, err := eval.Evaluate(ctx, payload.Request())
		if err != nil {
			logger.Error(ctx, "evaluation failed", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}

		logger.Info(ctx, "evaluation complete",
			"files", len(payload.Code),
			"score", report.Score.Value,
			"decision", report.Decision.Action,
			"cached", report.Cached,
			"duration", time.Since(start),
		)
		writeJSON(w, http.StatusOK, Response{
			LeaderEmail:          payload.Email.Reviewer,
			DeveloperEmail:       payload.Email.Developer,
			ArchitectureAnalysis: report.Analysis,
			Score:                report.Score.Value,
			ScoreFound:           report.Score.Found,
			Decision:             string(report.Decision.Action),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func cors(next http.Handler, allowedOrigins []string) http.Handler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(o)] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		switch {
		case origin == "" && allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin == "":
		case allowAll || allowed[strings.ToLower(origin)]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		default:
			w.Header().Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
