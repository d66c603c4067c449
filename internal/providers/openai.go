package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI calls the OpenAI chat completions API.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	retries int
	client  *http.Client
}

// NewOpenAI creates an OpenAI provider. The key comes from opts.APIKey or
// OPENAI_API_KEY; ARCHCHECK_OPENAI_BASE_URL points it at a compatible server.
func NewOpenAI(model string, opts Options) (*OpenAI, error) {
	key := firstNonEmpty(opts.APIKey, os.Getenv("OPENAI_API_KEY"))
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	return &OpenAI{
		apiKey:  key,
		model:   model,
		baseURL: firstNonEmpty(opts.BaseURL, os.Getenv("ARCHCHECK_OPENAI_BASE_URL"), defaultOpenAIURL),
		retries: opts.retries(),
		client:  opts.client(120 * time.Second),
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	return chatCompletion(ctx, o.client, o.baseURL, headers, newChatRequest(o.model, req), o.retries)
}
