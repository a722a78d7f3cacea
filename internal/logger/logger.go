// Package logger builds the process-wide structured logger. Production
// environments log JSON for ingestion; development logs human-readable text.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/investor-account-ledger/internal/config"
)

// NewLogger creates a slog.Logger configured from the application config.
// Every line carries the service name and environment so aggregated logs from
// multiple deployments stay distinguishable.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations are only worth the noise when debugging
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Application.Env, "production") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	logger.Info("Logger initialized", "level", level.String())

	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
