package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/investor-account-ledger/internal/config"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name              string
		logLevel          string
		env               string
		expectedSlogLevel slog.Level
	}{
		{"DebugLevel", "debug", "development", slog.LevelDebug},
		{"InfoLevel", "info", "development", slog.LevelInfo},
		{"WarnLevel", "warn", "production", slog.LevelWarn},
		{"ErrorLevel", "error", "production", slog.LevelError},
		{"DefaultToInfo", "unknown", "development", slog.LevelInfo},
		{"EmptyToInfo", "", "development", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{
				Application: config.ApplicationConfig{
					Env:  tc.env,
					Name: "account-ledger",
				},
				Logging: config.LoggingConfig{
					Level: tc.logLevel,
				},
			}

			logger := NewLogger(cfg)
			require.NotNil(t, logger)

			assert.True(t, logger.Enabled(context.Background(), tc.expectedSlogLevel), "Logger should be enabled for level "+tc.expectedSlogLevel.String())

			if tc.expectedSlogLevel == slog.LevelDebug {
				assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo), "Logger set to Debug should also enable Info")
			} else if tc.expectedSlogLevel > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
			}
		})
	}
}
