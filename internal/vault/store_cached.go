package vault

import (
	"context"
	"log/slog"

	"vaultgate/internal/cache"
	"vaultgate/internal/metrics"
)

// CachedStore wraps a TokenStore with a read-through resolution cache.
//
// Only FetchMany results are cached. Upserts deliberately do not populate
// the cache: under a first-write-wins race the committed original may not
// be the one this process submitted, and only the store knows which.
type CachedStore struct {
	inner TokenStore
	cache cache.TokenCache
}

// NewCachedStore wraps store with the given cache.
func NewCachedStore(inner TokenStore, c cache.TokenCache) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

// UpsertIfAbsent passes through to the underlying store.
func (s *CachedStore) UpsertIfAbsent(ctx context.Context, rec Record) error {
	return s.inner.UpsertIfAbsent(ctx, rec)
}

// FetchMany serves what it can from the cache and fetches the rest from
// the store. A cache failure degrades to a full store fetch; it never
// fails the resolution.
func (s *CachedStore) FetchMany(ctx context.Context, tokens []string) (map[string]string, error) {
	cached, err := s.cache.GetMany(ctx, tokens)
	if err != nil {
		slog.Warn("token cache read failed, falling through to store", "error", err)
		cached = map[string]string{}
	}
	metrics.TokenCacheHits.Add(float64(len(cached)))

	var missing []string
	for _, tok := range tokens {
		if _, ok := cached[tok]; !ok {
			missing = append(missing, tok)
		}
	}
	metrics.TokenCacheMisses.Add(float64(len(missing)))

	if len(missing) == 0 {
		return cached, nil
	}

	fetched, err := s.inner.FetchMany(ctx, missing)
	if err != nil {
		return nil, err
	}

	if len(fetched) > 0 {
		if err := s.cache.SetMany(ctx, fetched); err != nil {
			slog.Warn("token cache write failed", "error", err)
		}
	}

	for tok, original := range fetched {
		cached[tok] = original
	}
	return cached, nil
}

// Close closes the cache and the underlying store.
func (s *CachedStore) Close() error {
	if err := s.cache.Close(); err != nil {
		slog.Warn("token cache close failed", "error", err)
	}
	return s.inner.Close()
}
