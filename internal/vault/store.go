package vault

import (
	"context"
	"sync"
	"time"

	"vaultgate/internal/pii"
)

// Record is the persisted token mapping. Immutable once created; records
// are never updated or deleted.
type Record struct {
	Token     string       `bson:"token" json:"token"`
	Original  string       `bson:"original" json:"original"`
	Category  pii.Category `bson:"category" json:"category"`
	CreatedAt time.Time    `bson:"created_at" json:"created_at"`
}

// TokenStore is the durable token → original mapping.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	// UpsertIfAbsent atomically creates the record if no record with the
	// same token exists, and is a no-op otherwise (first-write-wins).
	// It must never overwrite: concurrent racers for the same token all
	// succeed, and exactly one original is durably committed.
	UpsertIfAbsent(ctx context.Context, rec Record) error

	// FetchMany resolves the given tokens in one query. Tokens without a
	// record are simply absent from the result, never an error.
	FetchMany(ctx context.Context, tokens []string) (map[string]string, error)

	// Close releases resources held by the store.
	Close() error
}

// MemoryStore keeps token records in process memory.
// Data survives across requests but not process restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Record
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Record)}
}

// UpsertIfAbsent stores the record unless the token already exists.
func (s *MemoryStore) UpsertIfAbsent(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[rec.Token]; exists {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.items[rec.Token] = rec
	return nil
}

// FetchMany resolves tokens against the in-memory map.
func (s *MemoryStore) FetchMany(_ context.Context, tokens []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		if rec, ok := s.items[tok]; ok {
			out[tok] = rec.Original
		}
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
