package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultAzureAPIVersion = "2024-02-15-preview"

// AzureOpenAI calls a chat completions deployment on Azure OpenAI. The
// deployment, not the model name, selects the model server-side.
type AzureOpenAI struct {
	apiKey     string
	endpoint   string
	deployment string
	apiVersion string
	retries    int
	client     *http.Client
}

// NewAzureOpenAI creates an Azure OpenAI provider. Settings come from
// opts.Azure or AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY and
// AZURE_OPENAI_DEPLOYMENT. When no deployment is configured the model name
// is used as the deployment name.
func NewAzureOpenAI(model string, opts Options) (*AzureOpenAI, error) {
	key := firstNonEmpty(opts.APIKey, os.Getenv("AZURE_OPENAI_API_KEY"))
	if key == "" {
		return nil, fmt.Errorf("AZURE_OPENAI_API_KEY environment variable is not set")
	}
	endpoint := firstNonEmpty(opts.Azure.Endpoint, opts.BaseURL, os.Getenv("AZURE_OPENAI_ENDPOINT"))
	if endpoint == "" {
		return nil, fmt.Errorf("AZURE_OPENAI_ENDPOINT environment variable is not set")
	}
	deployment := firstNonEmpty(opts.Azure.Deployment, os.Getenv("AZURE_OPENAI_DEPLOYMENT"), model)
	if deployment == "" {
		return nil, fmt.Errorf("azure deployment name is not set")
	}
	return &AzureOpenAI{
		apiKey:     key,
		endpoint:   strings.TrimRight(endpoint, "/") + "/",
		deployment: deployment,
		apiVersion: firstNonEmpty(opts.Azure.APIVersion, defaultAzureAPIVersion),
		retries:    opts.retries(),
		client:     opts.client(120 * time.Second),
	}, nil
}

func (a *AzureOpenAI) Name() string { return "azureopenai" }

// URL returns the chat completions URL for the configured deployment.
func (a *AzureOpenAI) URL() string {
	return fmt.Sprintf("%sopenai/deployments/%s/chat/completions?api-version=%s",
		a.endpoint, url.PathEscape(a.deployment), url.QueryEscape(a.apiVersion))
}

func (a *AzureOpenAI) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	headers := map[string]string{"api-key": a.apiKey}
	return chatCompletion(ctx, a.client, a.URL(), headers, newChatRequest("", req), a.retries)
}
