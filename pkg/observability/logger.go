// Package observability carries Cadence's structured logging, in-process
// metrics and health checks.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is the minimum level written.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to os.Stderr.
	Output    io.Writer
	AddSource bool
	// ServiceName and ServiceVersion are attached to every record.
	ServiceName    string
	ServiceVersion string
	// FilePath, when set, tees records into a size-rotated file.
	FilePath string
}

// DefaultLogConfig is the development setup: text on stderr.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    "cadence",
		ServiceVersion: "dev",
	}
}

// ProductionLogConfig is JSON on stdout with source locations.
func ProductionLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatJSON,
		Output:         os.Stdout,
		AddSource:      true,
		ServiceName:    "cadence",
		ServiceVersion: "unknown",
	}
}

// NewLogger builds a logger that also stamps correlation and request ids
// found on the record's context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.FilePath != "" {
		out = io.MultiWriter(out, rotatingFile(cfg.FilePath))
	}

	opts := &slog.HandlerOptions{Level: parseSlogLevel(cfg.Level), AddSource: cfg.AddSource}

	var base slog.Handler
	if cfg.Format == LogFormatJSON {
		base = slog.NewJSONHandler(out, opts)
	} else {
		base = slog.NewTextHandler(out, opts)
	}

	var static []slog.Attr
	if cfg.ServiceName != "" {
		static = append(static, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		static = append(static, slog.String("version", cfg.ServiceVersion))
	}
	if len(static) > 0 {
		base = base.WithAttrs(static)
	}

	return slog.New(contextHandler{base})
}

func rotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

func parseSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler copies ids from the context onto each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
