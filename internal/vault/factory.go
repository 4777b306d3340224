package vault

import (
	"context"
	"errors"
	"fmt"

	"vaultgate/config"
	"vaultgate/internal/cache"
	"vaultgate/internal/storage"
)

// Result holds the initialized vault and its storage dependency.
// The caller is responsible for calling Close() to release resources.
type Result struct {
	Vault   *Vault
	Store   TokenStore
	Storage storage.Storage
}

// Close releases all resources held by the vault.
// Safe to call multiple times.
func (r *Result) Close() error {
	var errs []error
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
		r.Store = nil
	}
	if r.Storage != nil {
		if err := r.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
		r.Storage = nil
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// New creates the vault from configuration: database connection, backend
// token store, optional resolution cache, tokenization engine.
// The caller must call Result.Close() during shutdown.
func New(ctx context.Context, cfg *config.Config) (*Result, error) {
	store, err := storage.New(ctx, buildStorageConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	tokenStore, err := createTokenStore(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	if cfg.Cache.Enabled {
		tokenCache, err := createTokenCache(cfg)
		if err != nil {
			store.Close()
			return nil, err
		}
		tokenStore = NewCachedStore(tokenStore, tokenCache)
	}

	return &Result{
		Vault:   NewVault(tokenStore, cfg.Vault.Secret),
		Store:   tokenStore,
		Storage: store,
	}, nil
}

// buildStorageConfig creates a storage.Config from the application config.
func buildStorageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Type: cfg.Storage.Type,
		SQLite: storage.SQLiteConfig{
			Path: cfg.Storage.SQLitePath,
		},
		PostgreSQL: storage.PostgreSQLConfig{
			URL:      cfg.Storage.PostgresURL,
			MaxConns: cfg.Storage.PostgresMaxConns,
		},
		MongoDB: storage.MongoDBConfig{
			URL:      cfg.Storage.MongoURL,
			Database: cfg.Storage.MongoDatabase,
		},
	}
}

// createTokenStore builds the TokenStore matching the storage backend.
func createTokenStore(store storage.Storage) (TokenStore, error) {
	switch store.Type() {
	case storage.TypeSQLite:
		return NewSQLiteStore(store.SQLiteDB())
	case storage.TypePostgreSQL:
		return NewPostgreSQLStore(store.PostgreSQLPool())
	case storage.TypeMongoDB:
		return NewMongoDBStore(store.MongoDatabase())
	default:
		return nil, fmt.Errorf("unknown storage type: %s", store.Type())
	}
}

// createTokenCache builds the configured cache backend.
func createTokenCache(cfg *config.Config) (cache.TokenCache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{
			URL: cfg.Cache.RedisURL,
			TTL: cfg.Cache.TTL,
		})
	case "local":
		return cache.NewLocalCache(cfg.Cache.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (valid: local, redis)", cfg.Cache.Backend)
	}
}
