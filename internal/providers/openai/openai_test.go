package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vaultgate/internal/core"
)

func TestNew(t *testing.T) {
	provider := New("test-api-key", Options{})

	if provider.apiKey != "test-api-key" {
		t.Errorf("apiKey = %q, want %q", provider.apiKey, "test-api-key")
	}
	if provider.defaultModel != DefaultModel {
		t.Errorf("defaultModel = %q, want %q", provider.defaultModel, DefaultModel)
	}
	if provider.client == nil {
		t.Error("client should not be nil")
	}
}

func TestComplete_Defaults(t *testing.T) {
	var received chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want 'Bearer test-key'", got)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
	}))
	defer server.Close()

	provider := NewWithHTTPClient("test-key", Options{BaseURL: server.URL}, nil)

	got, err := provider.Complete(context.Background(), "hello", core.CompletionParams{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "hi there" {
		t.Errorf("Complete() = %q, want %q", got, "hi there")
	}

	if received.Model != DefaultModel {
		t.Errorf("model = %q, want default %q", received.Model, DefaultModel)
	}
	if received.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want default %v", received.Temperature, DefaultTemperature)
	}
	if received.MaxTokens != DefaultMaxTokens {
		t.Errorf("max_tokens = %d, want default %d", received.MaxTokens, DefaultMaxTokens)
	}
	if len(received.Messages) != 2 {
		t.Fatalf("messages len = %d, want 2", len(received.Messages))
	}
	if received.Messages[0].Role != "system" || received.Messages[0].Content != DefaultSystemPrompt {
		t.Errorf("system message = %+v, want default system prompt", received.Messages[0])
	}
	if received.Messages[1].Role != "user" || received.Messages[1].Content != "hello" {
		t.Errorf("user message = %+v", received.Messages[1])
	}
}

func TestComplete_ExplicitParams(t *testing.T) {
	var received chatRequest
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	provider := NewWithHTTPClient("server-key", Options{BaseURL: server.URL}, nil)

	temp := 0.0
	maxTokens := 16
	_, err := provider.Complete(context.Background(), "prompt", core.CompletionParams{
		SystemPrompt: "Be terse.",
		Model:        "gpt-4o",
		Temperature:  &temp,
		MaxTokens:    &maxTokens,
		APIKey:       "caller-key",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if received.Model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", received.Model)
	}
	if received.Temperature != 0.0 {
		t.Errorf("temperature = %v, want explicit 0.0", received.Temperature)
	}
	if received.MaxTokens != 16 {
		t.Errorf("max_tokens = %d, want 16", received.MaxTokens)
	}
	if received.Messages[0].Content != "Be terse." {
		t.Errorf("system message = %q", received.Messages[0].Content)
	}
	if authHeader != "Bearer caller-key" {
		t.Errorf("Authorization = %q, want caller override", authHeader)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider := NewWithHTTPClient("k", Options{BaseURL: server.URL}, nil)

	got, err := provider.Complete(context.Background(), "prompt", core.CompletionParams{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "" {
		t.Errorf("Complete() = %q, want empty", got)
	}
}

func TestComplete_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	provider := NewWithHTTPClient("bad-key", Options{BaseURL: server.URL}, nil)

	_, err := provider.Complete(context.Background(), "prompt", core.CompletionParams{})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("error %q should carry the upstream message", err.Error())
	}
}

func TestIsValidClientRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"simple", "req-123", true},
		{"uuid", "a2f9c2de-5b7f-4e51-9c3f-0b8f6f8d1c2a", true},
		{"non-ascii", "req-é", false},
		{"too long", strings.Repeat("a", 513), false},
		{"max length", strings.Repeat("a", 512), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidClientRequestID(tt.id); got != tt.want {
				t.Errorf("isValidClientRequestID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
