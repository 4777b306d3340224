// Package app provides the main application struct for centralized dependency
// management and lifecycle control of the vaultgate server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"vaultgate/config"
	"vaultgate/internal/providers/openai"
	"vaultgate/internal/relay"
	"vaultgate/internal/server"
	"vaultgate/internal/vault"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config *config.Config
	vault  *vault.Result
	server *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &App{
		config: cfg,
	}

	vaultResult, err := vault.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault: %w", err)
	}
	app.vault = vaultResult

	provider := openai.New(cfg.OpenAI.APIKey, openai.Options{
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	pipeline := relay.New(vaultResult.Vault, provider)

	app.logStartupInfo()

	serverCfg := &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	}
	app.server = server.New(vaultResult.Vault, pipeline, serverCfg)

	return app, nil
}

// Vault returns the tokenization engine.
func (a *App) Vault() *vault.Vault {
	if a.vault == nil {
		return nil
	}
	return a.vault.Vault
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order:
// the HTTP server stops accepting requests first, then the vault releases
// its store, cache, and database resources.
//
// Shutdown is idempotent and safe for repeated calls.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.vault != nil {
		if err := a.vault.Close(); err != nil {
			slog.Error("vault close error", "error", err)
			errs = append(errs, fmt.Errorf("vault close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	if cfg.Server.MasterKey == "" {
		slog.Warn("SECURITY WARNING: VAULTGATE_MASTER_KEY not set - server running in UNSAFE MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set VAULTGATE_MASTER_KEY environment variable to secure this gateway")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	if cfg.Vault.Secret == "" {
		slog.Warn("VAULT_SECRET not set - token derivation uses an empty salt",
			"recommendation", "set VAULT_SECRET to a long random value")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	slog.Info("token store configured", "type", cfg.Storage.Type)

	if cfg.Cache.Enabled {
		slog.Info("token cache enabled", "backend", cfg.Cache.Backend, "ttl", cfg.Cache.TTL)
	} else {
		slog.Info("token cache disabled")
	}
}
