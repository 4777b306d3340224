package vault

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteStore implements TokenStore for SQLite databases.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite token store.
// It creates the token_records table if it doesn't exist.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS token_records (
			token TEXT PRIMARY KEY,
			original TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_records table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// UpsertIfAbsent inserts the record, ignoring the conflict when the token
// already exists. INSERT OR IGNORE on the primary key is the atomic
// conditional write; there is no read-then-write window.
func (s *SQLiteStore) UpsertIfAbsent(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO token_records (token, original, category, created_at)
		VALUES (?, ?, ?, ?)
	`, rec.Token, rec.Original, string(rec.Category), rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert token record: %w", err)
	}
	return nil
}

// FetchMany resolves tokens in one query using an IN clause.
func (s *SQLiteStore) FetchMany(ctx context.Context, tokens []string) (map[string]string, error) {
	if len(tokens) == 0 {
		return map[string]string{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tokens)), ",")
	args := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		args[i] = tok
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT token, original FROM token_records WHERE token IN ("+placeholders+")", args...)
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

// Close is a no-op; the *sql.DB is managed by the storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}
