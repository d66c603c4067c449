package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama calls Ollama or LM Studio through their OpenAI-compatible API.
type Ollama struct {
	apiKey  string
	model   string
	baseURL string
	retries int
	client  *http.Client
}

// NewOllama creates an Ollama provider. No API key is required by default.
func NewOllama(model string, opts Options) (*Ollama, error) {
	baseURL := firstNonEmpty(opts.BaseURL, os.Getenv("OLLAMA_HOST"), defaultOllamaURL)

	// Accept host, /v1 or the full completions URL.
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1/chat/completions")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	return &Ollama{
		apiKey:  firstNonEmpty(opts.APIKey, os.Getenv("ARCHCHECK_OLLAMA_API_KEY")),
		model:   model,
		baseURL: baseURL + "/v1/chat/completions",
		retries: opts.retries(),
		client:  opts.client(300 * time.Second),
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}
	return chatCompletion(ctx, o.client, o.baseURL, headers, newChatRequest(o.model, req), o.retries)
}
