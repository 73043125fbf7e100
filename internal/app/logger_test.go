package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		verbose   bool
		wantDebug bool
		wantInfo  bool
	}{
		{name: "default info", level: "info", wantInfo: true},
		{name: "warn hides info", level: "warn"},
		{name: "verbose overrides level", level: "error", verbose: true, wantDebug: true, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.LogLevel = tt.level

			logger := NewLogger(cfg, "test", tt.verbose)
			ctx := context.Background()
			assert.Equal(t, tt.wantDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.wantInfo, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestNewLogger_WritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = "json"
	cfg.LogFile = filepath.Join(t.TempDir(), "cadence.log")

	NewLogger(cfg, "1.2.3", false).Info("habit logged", "habit", "read")

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"habit logged"`)
	assert.Contains(t, string(data), `"version":"1.2.3"`)
}
