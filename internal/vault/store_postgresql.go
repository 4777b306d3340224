package vault

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLStore implements TokenStore for PostgreSQL databases.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates a new PostgreSQL token store.
// It creates the token_records table if it doesn't exist.
func NewPostgreSQLStore(pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS token_records (
			token TEXT PRIMARY KEY,
			original TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_records table: %w", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// UpsertIfAbsent inserts the record; ON CONFLICT DO NOTHING makes the
// primary-key conflict a success, so concurrent racers for the same token
// all return nil and exactly one original is committed.
func (s *PostgreSQLStore) UpsertIfAbsent(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_records (token, original, category, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO NOTHING
	`, rec.Token, rec.Original, string(rec.Category), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert token record: %w", err)
	}
	return nil
}

// FetchMany resolves tokens in one query via ANY on the token array.
func (s *PostgreSQLStore) FetchMany(ctx context.Context, tokens []string) (map[string]string, error) {
	if len(tokens) == 0 {
		return map[string]string{}, nil
	}

	rows, err := s.pool.Query(ctx,
		"SELECT token, original FROM token_records WHERE token = ANY($1)", tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to query token records: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, len(tokens))
	for rows.Next() {
		var token, original string
		if err := rows.Scan(&token, &original); err != nil {
			return nil, fmt.Errorf("failed to scan token record: %w", err)
		}
		out[token] = original
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token records: %w", err)
	}
	return out, nil
}

// Close is a no-op; the pool is managed by the storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
