package vault

import (
	"context"
	"strings"
	"time"

	"vaultgate/internal/core"
	"vaultgate/internal/metrics"
	"vaultgate/internal/pii"
)

// Vault performs the tokenize and detokenize operations against a token
// store using a process-wide secret salt. Safe for concurrent use; the
// store is the only shared mutable state.
type Vault struct {
	store  TokenStore
	secret string
}

// NewVault creates a Vault over the given store and secret salt. Changing
// the salt changes future derivations only; existing tokens stay resolvable
// because detokenization never recomputes hashes.
func NewVault(store TokenStore, secret string) *Vault {
	return &Vault{store: store, secret: secret}
}

// Tokenize replaces every detected PII occurrence in text with its
// deterministic token, running the detectors in their fixed order: email,
// then phone, then name. Each pass scans the previous pass's output.
//
// All-or-nothing: a store failure aborts the whole operation and no
// partially tokenized text is returned.
func (v *Vault) Tokenize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", core.NewInvalidRequestError("text must be a non-empty string", nil)
	}

	result := text
	for _, d := range pii.Detectors() {
		var err error
		result, err = v.tokenizePass(ctx, d, result)
		if err != nil {
			return "", err
		}
	}
	return result, nil
}

// tokenizePass runs one detector over text: dedup matches, upsert one
// record per normalized key, then replace every accepted occurrence.
func (v *Vault) tokenizePass(ctx context.Context, d pii.Detector, text string) (string, error) {
	matches := d.Detect(text)
	if len(matches) == 0 {
		return text, nil
	}

	byKey := make(map[string]string)   // normalized key -> token
	byRaw := make(map[string]string)   // raw surface form -> token
	for _, m := range matches {
		if _, ok := byRaw[m.Raw]; ok {
			continue
		}
		token, ok := byKey[m.Key]
		if !ok {
			token = DeriveToken(d.Category(), m.Key, v.secret)
			rec := Record{
				Token:     token,
				Original:  m.Raw,
				Category:  d.Category(),
				CreatedAt: time.Now().UTC(),
			}
			if err := v.store.UpsertIfAbsent(ctx, rec); err != nil {
				return "", core.NewStoreError("token store unavailable", err)
			}
			metrics.TokensIssued.WithLabelValues(string(d.Category())).Inc()
			byKey[m.Key] = token
		}
		byRaw[m.Raw] = token
	}

	// Replace in place via the surface pattern so spans the detector
	// declined (e.g. digit runs outside the phone bounds) stay verbatim.
	out := d.Pattern().ReplaceAllStringFunc(text, func(raw string) string {
		if token, ok := byRaw[raw]; ok {
			return token
		}
		return raw
	})
	return out, nil
}

// Detokenize restores the stored originals for every known token in text.
// Unknown tokens are left verbatim: the text may carry tokens minted under
// a different salt, from a purged store, or foreign content that happens to
// match the surface pattern. If text contains no token at all the store is
// not queried.
func (v *Vault) Detokenize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", core.NewInvalidRequestError("text must be a non-empty string", nil)
	}

	tokens := FindTokens(text)
	if tokens == nil {
		return text, nil
	}

	resolved, err := v.store.FetchMany(ctx, tokens)
	if err != nil {
		return "", core.NewStoreError("token store unavailable", err)
	}
	metrics.DetokenizeLookups.Add(float64(len(tokens)))
	metrics.DetokenizeMisses.Add(float64(len(tokens) - len(resolved)))

	return tokenSurface.ReplaceAllStringFunc(text, func(token string) string {
		if original, ok := resolved[token]; ok {
			return original
		}
		return token
	}), nil
}
