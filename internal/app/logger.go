package app

import (
	"log/slog"

	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

// NewLogger builds the process logger from configuration. Production uses
// the JSON defaults; verbose forces debug level.
func NewLogger(cfg *config.Config, version string, verbose bool) *slog.Logger {
	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	if cfg.LogLevel != "" {
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		logCfg.Format = observability.LogFormat(cfg.LogFormat)
	}
	if verbose {
		logCfg.Level = observability.LogLevelDebug
	}
	logCfg.FilePath = cfg.LogFile
	logCfg.ServiceVersion = version
	return observability.NewLogger(logCfg)
}
