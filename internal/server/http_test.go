package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vaultgate/internal/relay"
	"vaultgate/internal/vault"
)

func newTestServer(cfg *Config) *Server {
	v := vault.NewVault(vault.NewMemoryStore(), "server-secret")
	return New(v, relay.New(v, &echoCompleter{}), cfg)
}

func TestServer_HealthIsPublic(t *testing.T) {
	srv := newTestServer(&Config{MasterKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without credentials", rec.Code)
	}
}

func TestServer_APIRequiresAuth(t *testing.T) {
	srv := newTestServer(&Config{MasterKey: "secret"})

	req := httptest.NewRequest(http.MethodPost, "/v1/anonymize",
		strings.NewReader(`{"message": "hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without credentials", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/anonymize",
		strings.NewReader(`{"message": "hi there"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with credentials: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_NoMasterKeyMeansOpen(t *testing.T) {
	srv := newTestServer(&Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/anonymize",
		strings.NewReader(`{"message": "hi there"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no master key configured", rec.Code)
	}
}

func TestServer_RequestIDEchoed(t *testing.T) {
	srv := newTestServer(&Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-id-42")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "caller-id-42" {
		t.Errorf("X-Request-ID = %q, want caller value echoed", got)
	}
}

func TestServer_RequestIDGenerated(t *testing.T) {
	srv := newTestServer(&Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID generated")
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	srv := newTestServer(&Config{MasterKey: "secret", MetricsEnabled: true})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for public metrics endpoint", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics body missing standard collectors")
	}
}

func TestServer_MetricsDisabledByDefault(t *testing.T) {
	srv := newTestServer(&Config{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when metrics disabled", rec.Code)
	}
}

func TestServer_UnknownRouteErrorEnvelope(t *testing.T) {
	srv := newTestServer(&Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/nope", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown route", rec.Code)
	}
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Error.Type != "invalid_request_error" {
		t.Errorf("error.type = %q, want invalid_request_error", body.Error.Type)
	}
	if body.Error.Message == "" {
		t.Error("error.message empty, want a humane not-found message")
	}
}

func TestServer_BodyLimit(t *testing.T) {
	srv := newTestServer(&Config{BodySizeLimit: 64})

	big := strings.Repeat("a", 256)
	req := httptest.NewRequest(http.MethodPost, "/v1/anonymize",
		strings.NewReader(`{"message": "`+big+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413 over the body limit", rec.Code)
	}
}
