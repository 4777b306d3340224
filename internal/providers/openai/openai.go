// Package openai implements the external text-completion collaborator via
// the OpenAI chat completions API.
package openai

import (
	"context"
	"net/http"

	"vaultgate/internal/core"
	"vaultgate/internal/pkg/aiclient"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Completion defaults applied when the caller supplies no override.
const (
	DefaultModel        = "gpt-4o-mini"
	DefaultSystemPrompt = "You are a helpful assistant."
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 512
)

// Provider talks to the OpenAI chat completions endpoint.
// It only ever receives tokenized prompts; enforcing that is the relay's job.
type Provider struct {
	client       *aiclient.Client
	apiKey       string
	defaultModel string
}

// Options configures a Provider.
type Options struct {
	// BaseURL overrides the OpenAI API base URL (e.g. for a proxy).
	BaseURL string
	// Model is the default model when a request names none.
	Model string
}

// New creates a new OpenAI provider.
func New(apiKey string, opts Options) *Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	p := &Provider{apiKey: apiKey, defaultModel: model}
	p.client = aiclient.New(aiclient.DefaultConfig(baseURL), p.setHeaders)
	return p
}

// NewWithHTTPClient creates a Provider with a custom HTTP client.
// If httpClient is nil, http.DefaultClient is used.
func NewWithHTTPClient(apiKey string, opts Options, httpClient *http.Client) *Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	cfg := aiclient.DefaultConfig(baseURL)
	cfg.MaxRetries = 0

	p := &Provider{apiKey: apiKey, defaultModel: model}
	p.client = aiclient.NewWithHTTPClient(httpClient, cfg, p.setHeaders)
	return p
}

// setHeaders sets the required headers for OpenAI API requests
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	// Forward request ID using OpenAI's X-Client-Request-Id header.
	// OpenAI requires ASCII-only characters and max 512 bytes, otherwise returns 400.
	if requestID := core.GetRequestID(req.Context()); requestID != "" && isValidClientRequestID(requestID) {
		req.Header.Set("X-Client-Request-Id", requestID)
	}
}

// isValidClientRequestID checks if the request ID is valid for OpenAI's
// X-Client-Request-Id header: ASCII characters only, max 512 characters.
func isValidClientRequestID(id string) bool {
	if len(id) > 512 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] > 127 {
			return false
		}
	}
	return true
}

// chatMessage is one entry of the chat completions messages array.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the JSON body sent to /chat/completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

// chatResponse is the subset of the reply we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt to the chat completions endpoint and returns the
// assistant text. Caller-absent parameters fall back to the defaults the
// upstream service expects.
func (p *Provider) Complete(ctx context.Context, prompt string, params core.CompletionParams) (string, error) {
	systemPrompt := params.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	model := params.Model
	if model == "" {
		model = p.defaultModel
	}
	temperature := DefaultTemperature
	if params.Temperature != nil {
		temperature = *params.Temperature
	}
	maxTokens := DefaultMaxTokens
	if params.MaxTokens != nil {
		maxTokens = *params.MaxTokens
	}

	req := aiclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/chat/completions",
		Body: chatRequest{
			Model:       model,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
		},
	}

	// Per-request API key override
	if params.APIKey != "" {
		req.Headers = map[string]string{"Authorization": "Bearer " + params.APIKey}
	}

	var resp chatResponse
	if err := p.client.Do(ctx, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
