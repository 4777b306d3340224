// Package vault implements the tokenization engine: deterministic token
// derivation, the insert-once token store contract, and the tokenize and
// detokenize operations built on the pii detectors.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"vaultgate/internal/pii"
)

// tokenDigestLen is the number of hex characters kept from the digest.
// 12 hex chars is 48 bits; the residual birthday-collision risk is an
// accepted size/uniqueness trade-off.
const tokenDigestLen = 12

// tokenSurface is the exact wire shape of a token inside larger text.
// Detokenization relies on this bit-for-bit.
var tokenSurface = regexp.MustCompile(`\b(?:NAME|EMAIL|PHONE)_[0-9a-f]{12}\b`)

// DeriveToken returns the deterministic token for a (category, normalized
// key) pair under the given secret salt. Pure function: the same inputs
// always produce the same token across processes and restarts.
func DeriveToken(cat pii.Category, key, secret string) string {
	sum := sha256.Sum256([]byte(secret + "|" + key))
	return cat.TokenPrefix() + hex.EncodeToString(sum[:])[:tokenDigestLen]
}

// FindTokens returns the deduplicated tokens present in text, in first
// occurrence order. Returns nil when text contains no token.
func FindTokens(text string) []string {
	raw := tokenSurface.FindAllString(text, -1)
	if raw == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	var tokens []string
	for _, tok := range raw {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}
