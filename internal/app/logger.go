package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger for the configured output format. JSON
// output carries source locations for log aggregation; the text handler is
// meant for local development.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
