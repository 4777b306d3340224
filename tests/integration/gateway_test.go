//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultgate/internal/providers/openai"
	"vaultgate/internal/relay"
	"vaultgate/internal/server"
	"vaultgate/internal/vault"
)

// newGatewayFixture wires the full request path over the PostgreSQL store:
// HTTP server, relay pipeline, OpenAI provider pointed at a mock upstream.
func newGatewayFixture(t *testing.T, masterKey string) (*server.Server, *mockCompletionServer) {
	t.Helper()

	store, err := vault.NewPostgreSQLStore(pgPool)
	require.NoError(t, err)
	truncateTokens(t)

	v := vault.NewVault(store, "gateway-secret")

	upstream := newMockCompletionServer(t)
	provider := openai.NewWithHTTPClient("test-key", openai.Options{BaseURL: upstream.URL()}, nil)

	srv := server.New(v, relay.New(v, provider), &server.Config{MasterKey: masterKey})
	return srv, upstream
}

// mockCompletionServer mimics the chat completions endpoint and echoes the
// user message back as the assistant reply.
type mockCompletionServer struct {
	server      *httptest.Server
	lastUserMsg string
}

func newMockCompletionServer(t *testing.T) *mockCompletionServer {
	m := &mockCompletionServer{}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("mock upstream: bad body: %v", err)
		}
		for _, msg := range req.Messages {
			if msg.Role == "user" {
				m.lastUserMsg = msg.Content
			}
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Noted: " + m.lastUserMsg}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockCompletionServer) URL() string { return m.server.URL }

func postBody(t *testing.T, srv *server.Server, path, body, masterKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if masterKey != "" {
		req.Header.Set("Authorization", "Bearer "+masterKey)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestGateway_SecureCompletionShieldsPII(t *testing.T) {
	srv, upstream := newGatewayFixture(t, "")

	rec := postBody(t, srv, "/v1/secure-completion",
		`{"prompt": "Invite Laura Mendez via laura.mendez@example.net or 415-555-0134"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The upstream only ever saw tokens.
	assert.NotContains(t, upstream.lastUserMsg, "laura.mendez@example.net")
	assert.NotContains(t, upstream.lastUserMsg, "415-555-0134")
	assert.Contains(t, upstream.lastUserMsg, "EMAIL_")
	assert.Contains(t, upstream.lastUserMsg, "PHONE_")

	// The caller got the originals back.
	var resp struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Response, "laura.mendez@example.net")
	assert.Contains(t, resp.Response, "415-555-0134")
}

func TestGateway_AnonymizeThenDeanonymize(t *testing.T) {
	srv, _ := newGatewayFixture(t, "mk")

	rec := postBody(t, srv, "/v1/anonymize",
		`{"message": "reach john@example.com today"}`, "mk")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var anon struct {
		AnonymizedMessage string `json:"anonymized_message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &anon))
	require.NotContains(t, anon.AnonymizedMessage, "john@example.com")

	body, _ := json.Marshal(map[string]string{"anonymized_message": anon.AnonymizedMessage})
	rec = postBody(t, srv, "/v1/deanonymize", string(body), "mk")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dean struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dean))
	assert.Equal(t, "reach john@example.com today", dean.Message)
}

func TestGateway_AuthRequired(t *testing.T) {
	srv, _ := newGatewayFixture(t, "mk")

	rec := postBody(t, srv, "/v1/anonymize", `{"message": "hi there"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	if !strings.Contains(rec.Body.String(), "authentication_error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
