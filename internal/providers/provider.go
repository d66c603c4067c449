package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// GenerateRequest is the prompt sent to a backend.
type GenerateRequest struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	// Temperature is only sent when positive; zero leaves the backend default.
	Temperature float64
}

// GenerateResponse is the raw text returned by a backend.
type GenerateResponse struct {
	Content    string
	TokensUsed int
}

// Generator is the provider abstraction.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// AzureOptions locates an Azure OpenAI deployment.
type AzureOptions struct {
	Endpoint   string
	Deployment string
	APIVersion string
}

// Options tunes how a provider is constructed. Zero values fall back to
// environment variables and defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	Azure      AzureOptions
}

func (o Options) client(defaultTimeout time.Duration) *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) retries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return defaultMaxRetries
}

// Names lists the provider names accepted by New.
var Names = []string{"anthropic", "openai", "azureopenai", "gemini", "ollama", "lmstudio", "huggingface"}

// New creates a provider by name.
func New(provider, model string, opts Options) (Generator, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model, opts)
	case "openai":
		return NewOpenAI(model, opts)
	case "azureopenai", "azure":
		return NewAzureOpenAI(model, opts)
	case "gemini", "google":
		return NewGemini(model, opts)
	case "ollama", "lmstudio":
		return NewOllama(model, opts)
	case "huggingface", "hf":
		return NewHuggingFace(model, opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func withDefaultTokens(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
