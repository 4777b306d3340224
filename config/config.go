// Package config provides configuration management for the application.
// Configuration is environment-driven, with an optional .env file for
// local development.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DefaultBodySizeLimit caps request bodies at 256 KB.
const DefaultBodySizeLimit int64 = 256 * 1024

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Vault   VaultConfig
	Storage StorageConfig
	Cache   CacheConfig
	OpenAI  OpenAIConfig
	Metrics MetricsConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	// MasterKey protects all non-public routes when set.
	MasterKey string
	// BodySizeLimit is the max request body size in bytes.
	BodySizeLimit int64
}

// VaultConfig holds tokenization engine configuration
type VaultConfig struct {
	// Secret is the process-wide salt mixed into every token derivation.
	// Changing it changes future derivations only; stored tokens remain
	// resolvable by lookup.
	Secret string
}

// StorageConfig selects and configures the token store backend
type StorageConfig struct {
	// Type is "sqlite", "postgresql", or "mongodb"
	Type string

	SQLitePath       string
	PostgresURL      string
	PostgresMaxConns int
	MongoURL         string
	MongoDatabase    string
}

// CacheConfig configures the optional token-resolution cache
type CacheConfig struct {
	Enabled bool
	// Backend is "local" or "redis"
	Backend  string
	RedisURL string
	TTL      time.Duration
}

// OpenAIConfig holds completion collaborator configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	// Model is the default completion model when a request names none.
	Model string
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// LoggingConfig controls process log output
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error"
	Level string
	// Format is "json" or "pretty"
	Format string
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	// Load .env using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("BODY_SIZE_LIMIT", DefaultBodySizeLimit)
	viper.SetDefault("STORAGE_TYPE", "sqlite")
	viper.SetDefault("SQLITE_PATH", "data/vaultgate.db")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("MONGODB_DATABASE", "vaultgate")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("CACHE_BACKEND", "local")
	viper.SetDefault("CACHE_TTL", "24h")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("METRICS_ENABLED", false)
	viper.SetDefault("METRICS_ENDPOINT", "/metrics")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:          viper.GetString("PORT"),
			MasterKey:     viper.GetString("VAULTGATE_MASTER_KEY"),
			BodySizeLimit: viper.GetInt64("BODY_SIZE_LIMIT"),
		},
		Vault: VaultConfig{
			Secret: viper.GetString("VAULT_SECRET"),
		},
		Storage: StorageConfig{
			Type:             viper.GetString("STORAGE_TYPE"),
			SQLitePath:       viper.GetString("SQLITE_PATH"),
			PostgresURL:      viper.GetString("POSTGRES_URL"),
			PostgresMaxConns: viper.GetInt("POSTGRES_MAX_CONNS"),
			MongoURL:         viper.GetString("MONGODB_URL"),
			MongoDatabase:    viper.GetString("MONGODB_DATABASE"),
		},
		Cache: CacheConfig{
			Enabled:  viper.GetBool("CACHE_ENABLED"),
			Backend:  viper.GetString("CACHE_BACKEND"),
			RedisURL: viper.GetString("REDIS_URL"),
			TTL:      viper.GetDuration("CACHE_TTL"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("OPENAI_API_KEY"),
			BaseURL: viper.GetString("OPENAI_BASE_URL"),
			Model:   viper.GetString("OPENAI_MODEL"),
		},
		Metrics: MetricsConfig{
			Enabled:  viper.GetBool("METRICS_ENABLED"),
			Endpoint: viper.GetString("METRICS_ENDPOINT"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency before any connection is made.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "sqlite":
	case "postgresql":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required when STORAGE_TYPE=postgresql")
		}
	case "mongodb":
		if c.Storage.MongoURL == "" {
			return fmt.Errorf("MONGODB_URL is required when STORAGE_TYPE=mongodb")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE: %s (valid: sqlite, postgresql, mongodb)", c.Storage.Type)
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "local":
		case "redis":
			if c.Cache.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
			}
		default:
			return fmt.Errorf("invalid CACHE_BACKEND: %s (valid: local, redis)", c.Cache.Backend)
		}
	}

	return nil
}
