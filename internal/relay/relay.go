// Package relay sequences the secure relay pipeline: tokenize the prompt,
// call the external completion collaborator with tokenized text only, then
// detokenize the response. The stages never run out of order and none is
// skipped; this is what keeps raw PII inside the system boundary.
package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vaultgate/internal/core"
	"vaultgate/internal/metrics"
	"vaultgate/internal/vault"
)

// Completer is the external text-completion collaborator. It may take
// seconds and must honor context cancellation.
type Completer interface {
	Complete(ctx context.Context, prompt string, params core.CompletionParams) (string, error)
}

// Pipeline runs the fixed tokenize → complete → detokenize sequence.
// Safe for concurrent use; independent relays interleave freely and share
// nothing but the token store.
type Pipeline struct {
	vault     *vault.Vault
	completer Completer
}

// New creates a relay pipeline over the given vault and collaborator.
func New(v *vault.Vault, c Completer) *Pipeline {
	return &Pipeline{vault: v, completer: c}
}

// Relay executes the pipeline for one prompt.
//
// If tokenization fails the external call never happens; the raw prompt is
// not sent as a fallback under any error path. Collaborator failures
// discard the tokenized prompt and surface as provider errors, distinct
// from store errors.
func (p *Pipeline) Relay(ctx context.Context, prompt string, params core.CompletionParams) (string, error) {
	start := time.Now()

	tokenizedPrompt, err := p.vault.Tokenize(ctx, prompt)
	if err != nil {
		metrics.RelayRequests.WithLabelValues("tokenize_error").Inc()
		return "", err
	}

	tokenizedResponse, err := p.completer.Complete(ctx, tokenizedPrompt, params)
	if err != nil {
		metrics.RelayRequests.WithLabelValues("provider_error").Inc()
		slog.Error("completion call failed",
			"request_id", core.GetRequestID(ctx),
			"error", err,
		)
		return "", err
	}

	// An empty or whitespace-only completion has nothing to restore; hand
	// it back verbatim rather than failing input validation in Detokenize.
	if strings.TrimSpace(tokenizedResponse) == "" {
		metrics.RelayRequests.WithLabelValues("ok").Inc()
		metrics.RelayDuration.Observe(time.Since(start).Seconds())
		return tokenizedResponse, nil
	}

	restored, err := p.vault.Detokenize(ctx, tokenizedResponse)
	if err != nil {
		metrics.RelayRequests.WithLabelValues("detokenize_error").Inc()
		return "", err
	}

	metrics.RelayRequests.WithLabelValues("ok").Inc()
	metrics.RelayDuration.Observe(time.Since(start).Seconds())
	return restored, nil
}
