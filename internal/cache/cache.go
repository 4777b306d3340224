// Package cache provides a token-resolution cache in front of the token
// store. Token records are immutable, so a cached token→original pair can
// never go stale; the TTL only bounds memory, not correctness.
// Supports an in-process backend and Redis for multi-instance deployments.
package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds how long resolved pairs are kept (24 hours).
const DefaultTTL = 24 * time.Hour

// TokenCache stores resolved token→original pairs.
// Implementations must be safe for concurrent use.
type TokenCache interface {
	// GetMany returns the cached originals for the given tokens.
	// Tokens not in the cache are simply absent from the result.
	GetMany(ctx context.Context, tokens []string) (map[string]string, error)

	// SetMany stores resolved pairs.
	SetMany(ctx context.Context, pairs map[string]string) error

	// Close releases any resources held by the cache.
	Close() error
}
