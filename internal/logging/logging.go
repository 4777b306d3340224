// Package logging wires process-wide slog output: JSON for production,
// a colorized pretty handler for local development.
package logging

import (
	"log/slog"
	"os"

	"vaultgate/config"
)

// Setup installs the default slog logger per configuration.
func Setup(cfg config.LoggingConfig) {
	level := parseLevel(cfg.Level)

	var handler slog.Handler
	if cfg.Format == "pretty" {
		handler = NewPrettyHandler(os.Stdout, level)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
