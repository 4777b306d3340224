package cache

import (
	"context"
	"sync"
	"time"
)

// localEntry pairs a cached original with its expiry.
type localEntry struct {
	original  string
	expiresAt time.Time
}

// LocalCache implements TokenCache with an in-process map.
// This is suitable for single-instance deployments.
type LocalCache struct {
	mu      sync.RWMutex
	entries map[string]localEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewLocalCache creates a new in-process token cache.
// A ttl of 0 uses DefaultTTL.
func NewLocalCache(ttl time.Duration) *LocalCache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &LocalCache{
		entries: make(map[string]localEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetMany returns cached, unexpired pairs. Expired entries are dropped
// lazily on read.
func (c *LocalCache) GetMany(_ context.Context, tokens []string) (map[string]string, error) {
	now := c.now()
	out := make(map[string]string, len(tokens))

	c.mu.RLock()
	var expired []string
	for _, tok := range tokens {
		e, ok := c.entries[tok]
		if !ok {
			continue
		}
		if now.After(e.expiresAt) {
			expired = append(expired, tok)
			continue
		}
		out[tok] = e.original
	}
	c.mu.RUnlock()

	if len(expired) > 0 {
		c.mu.Lock()
		for _, tok := range expired {
			if e, ok := c.entries[tok]; ok && now.After(e.expiresAt) {
				delete(c.entries, tok)
			}
		}
		c.mu.Unlock()
	}

	return out, nil
}

// SetMany stores pairs with the configured TTL.
func (c *LocalCache) SetMany(_ context.Context, pairs map[string]string) error {
	expiresAt := c.now().Add(c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for tok, original := range pairs {
		c.entries[tok] = localEntry{original: original, expiresAt: expiresAt}
	}
	return nil
}

// Close is a no-op for the local cache.
func (c *LocalCache) Close() error {
	return nil
}
