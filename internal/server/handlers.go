// Package server provides HTTP handlers and server setup for the vault gateway.
package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"vaultgate/internal/core"
	"vaultgate/internal/relay"
	"vaultgate/internal/vault"
)

// apiKeyOverrideHeader lets a caller supply its own completion API key for
// a single request instead of the server-wide one.
const apiKeyOverrideHeader = "X-OpenAI-API-Key"

// Handler holds the HTTP handlers
type Handler struct {
	vault *vault.Vault
	relay *relay.Pipeline
}

// NewHandler creates a new handler over the tokenization vault and the
// secure relay pipeline.
func NewHandler(v *vault.Vault, p *relay.Pipeline) *Handler {
	return &Handler{
		vault: v,
		relay: p,
	}
}

// AnonymizeRequest is the body of POST /v1/anonymize.
type AnonymizeRequest struct {
	Message string `json:"message"`
}

// AnonymizeResponse is the reply of POST /v1/anonymize.
type AnonymizeResponse struct {
	AnonymizedMessage string `json:"anonymized_message"`
}

// DeanonymizeRequest is the body of POST /v1/deanonymize.
type DeanonymizeRequest struct {
	AnonymizedMessage string `json:"anonymized_message"`
}

// DeanonymizeResponse is the reply of POST /v1/deanonymize.
type DeanonymizeResponse struct {
	Message string `json:"message"`
}

// CompletionRequest is the body of POST /v1/secure-completion.
// Temperature and MaxTokens are pointers so that an absent field and an
// explicit zero can be told apart.
type CompletionRequest struct {
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt"`
	Model        string   `json:"model"`
	Temperature  *float64 `json:"temperature"`
	MaxTokens    *int     `json:"max_tokens"`
}

// CompletionResponse is the reply of POST /v1/secure-completion.
type CompletionResponse struct {
	Response string `json:"response"`
}

// Anonymize handles POST /v1/anonymize
func (h *Handler) Anonymize(c echo.Context) error {
	var req AnonymizeRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	anonymized, err := h.vault.Tokenize(c.Request().Context(), req.Message)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, AnonymizeResponse{AnonymizedMessage: anonymized})
}

// Deanonymize handles POST /v1/deanonymize
func (h *Handler) Deanonymize(c echo.Context) error {
	var req DeanonymizeRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	if req.AnonymizedMessage == "" {
		return handleError(c, core.NewInvalidRequestError("anonymized_message is required", nil))
	}

	message, err := h.vault.Detokenize(c.Request().Context(), req.AnonymizedMessage)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, DeanonymizeResponse{Message: message})
}

// SecureCompletion handles POST /v1/secure-completion
func (h *Handler) SecureCompletion(c echo.Context) error {
	var req CompletionRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	if req.Prompt == "" {
		return handleError(c, core.NewInvalidRequestError("prompt is required", nil))
	}

	params := core.CompletionParams{
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		APIKey:       c.Request().Header.Get(apiKeyOverrideHeader),
	}

	response, err := h.relay.Relay(c.Request().Context(), req.Prompt, params)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, CompletionResponse{Response: response})
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleError converts vault errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var vaultErr *core.VaultError
	if errors.As(err, &vaultErr) {
		return c.JSON(vaultErr.HTTPStatusCode(), vaultErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
