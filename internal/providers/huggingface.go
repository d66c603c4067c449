package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultHuggingFaceURL = "https://api-inference.huggingface.co"

// HuggingFace calls the Hugging Face Inference API text-generation task.
type HuggingFace struct {
	apiKey  string
	model   string
	baseURL string
	retries int
	client  *http.Client
}

// NewHuggingFace creates a Hugging Face provider. The token comes from
// opts.APIKey, HF_API_TOKEN or HUGGINGFACEHUB_API_TOKEN. Public models can be
// called without a token at a lower rate limit.
func NewHuggingFace(model string, opts Options) (*HuggingFace, error) {
	if model == "" {
		return nil, fmt.Errorf("huggingface provider requires a model name")
	}
	return &HuggingFace{
		apiKey:  firstNonEmpty(opts.APIKey, os.Getenv("HF_API_TOKEN"), os.Getenv("HUGGINGFACEHUB_API_TOKEN")),
		model:   model,
		baseURL: strings.TrimRight(firstNonEmpty(opts.BaseURL, defaultHuggingFaceURL), "/"),
		retries: opts.retries(),
		client:  opts.client(300 * time.Second),
	}, nil
}

func (h *HuggingFace) Name() string { return "huggingface" }

func (h *HuggingFace) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	input := req.Prompt
	if req.SystemPrompt != "" {
		input = req.SystemPrompt + "\n\n" + req.Prompt
	}
	body := hfRequest{
		Inputs: input,
		Parameters: hfParameters{
			MaxNewTokens:   withDefaultTokens(req.MaxTokens),
			TopP:           0.95,
			ReturnFullText: false,
		},
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Parameters.Temperature = &t
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("marshaling request: %w", err)
	}
	headers := map[string]string{}
	if h.apiKey != "" {
		headers["Authorization"] = "Bearer " + h.apiKey
	}
	url := h.baseURL + "/models/" + h.model

	var resp GenerateResponse
	err = retryWithBackoff(ctx, h.retries, func() error {
		var result []hfGeneration
		if err := postJSON(ctx, h.client, url, headers, payload, &result); err != nil {
			return err
		}
		if len(result) == 0 || result[0].GeneratedText == "" {
			return fmt.Errorf("no generated text in response")
		}
		resp = GenerateResponse{Content: result[0].GeneratedText}
		return nil
	})
	return resp, err
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int      `json:"max_new_tokens"`
	Temperature    *float64 `json:"temperature,omitempty"`
	TopP           float64  `json:"top_p"`
	ReturnFullText bool     `json:"return_full_text"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}
