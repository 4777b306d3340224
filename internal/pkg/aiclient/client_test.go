package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"vaultgate/internal/core"
)

// fastConfig returns a config with negligible backoff for tests.
func fastConfig(baseURL string) Config {
	cfg := DefaultConfig(baseURL)
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return cfg
}

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"hello"}`))
	}))
	defer server.Close()

	client := New(
		fastConfig(server.URL),
		func(req *http.Request) {
			req.Header.Set("X-Test", "value")
		},
	)

	var result struct {
		Message string `json:"message"`
	}
	err := client.Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/test",
	}, &result)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message != "hello" {
		t.Errorf("expected message 'hello', got '%s'", result.Message)
	}
}

func TestClient_Do_WithRequestBody(t *testing.T) {
	var receivedBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type 'application/json', got '%s'", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(fastConfig(server.URL), nil)

	requestBody := map[string]string{"input": "test"}
	var result map[string]string
	err := client.Do(context.Background(), Request{
		Method:   http.MethodPost,
		Endpoint: "/test",
		Body:     requestBody,
	}, &result)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedBody["input"] != "test" {
		t.Errorf("expected input 'test', got '%v'", receivedBody["input"])
	}
}

func TestClient_Do_Headers(t *testing.T) {
	var receivedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(
		fastConfig(server.URL),
		func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer token")
		},
	)

	err := client.Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/test",
		Headers: map[string]string{
			"X-Custom": "custom-value",
		},
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedHeaders.Get("Authorization") != "Bearer token" {
		t.Errorf("expected Authorization header 'Bearer token', got '%s'", receivedHeaders.Get("Authorization"))
	}
	if receivedHeaders.Get("X-Custom") != "custom-value" {
		t.Errorf("expected X-Custom header 'custom-value', got '%s'", receivedHeaders.Get("X-Custom"))
	}
}

func TestClient_Do_RetriesOnServiceUnavailable(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(fastConfig(server.URL), nil)

	var result map[string]string
	err := client.Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/test",
	}, &result)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestClient_Do_NoRetryOnBadRequest(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad input"}}`))
	}))
	defer server.Close()

	client := New(fastConfig(server.URL), nil)

	err := client.Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/test",
	}, nil)

	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var vaultErr *core.VaultError
	if !errors.As(err, &vaultErr) {
		t.Fatalf("error type = %T, want *core.VaultError", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (400 is not retryable)", got)
	}
}

func TestClient_Do_RetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := fastConfig(server.URL)
	cfg.MaxRetries = 2
	client := New(cfg, nil)

	err := client.Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/test",
	}, nil)

	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := fastConfig(server.URL)
	cfg.MaxRetries = 0
	cfg.CircuitBreaker = &CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	}
	client := New(cfg, nil)

	req := Request{Method: http.MethodGet, Endpoint: "/test"}

	// Trip the breaker.
	for i := 0; i < 2; i++ {
		if err := client.Do(context.Background(), req, nil); err == nil {
			t.Fatal("expected error from failing upstream")
		}
	}

	err := client.Do(context.Background(), req, nil)
	if err == nil {
		t.Fatal("expected circuit breaker error")
	}
	var vaultErr *core.VaultError
	if !errors.As(err, &vaultErr) {
		t.Fatalf("error type = %T, want *core.VaultError", err)
	}
	if vaultErr.HTTPStatusCode() != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when circuit is open", vaultErr.HTTPStatusCode())
	}
}
