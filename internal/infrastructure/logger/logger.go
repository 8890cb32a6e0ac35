// Package logger provides structured logging utilities.
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContextKey is a type for context keys.
type ContextKey string

// Context keys for logging.
const (
	CorrelationIDKey ContextKey = "correlation_id"
	TraceIDKey       ContextKey = "trace_id"
	SpanIDKey        ContextKey = "span_id"
)

// Config holds logger configuration.
type Config struct {
	Level      string
	Format     string // "json" or "console"
	TimeFormat string
	Caller     bool
}

// Setup initializes the global logger.
func Setup(cfg Config) {
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		})
	}

	if cfg.Caller {
		log.Logger = log.With().Caller().Logger()
	}
}

// WithContext returns a logger enriched with whatever correlation/trace
// identifiers are attached to ctx — the mailbox worker attaches a
// correlation ID for LIST_EX requests, and trace/span IDs of the span
// opened for each mailbox request.
func WithContext(ctx context.Context) zerolog.Logger {
	logger := log.Logger

	if correlationID, ok := ctx.Value(CorrelationIDKey).(string); ok && correlationID != "" {
		logger = logger.With().Str("correlation_id", correlationID).Logger()
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		logger = logger.With().Str("trace_id", traceID).Logger()
	}
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok && spanID != "" {
		logger = logger.With().Str("span_id", spanID).Logger()
	}

	return logger
}

// WithCorrelationID attaches a mailbox correlation ID to ctx.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// WithTraceID attaches a trace ID to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithSpanID attaches a span ID to ctx.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// Info logs an info message with context.
func Info(ctx context.Context, msg string) {
	WithContext(ctx).Info().Msg(msg)
}

// Error logs an error message with context.
func Error(ctx context.Context, err error, msg string) {
	WithContext(ctx).Error().Err(err).Msg(msg)
}

// Debug logs a debug message with context.
func Debug(ctx context.Context, msg string) {
	WithContext(ctx).Debug().Msg(msg)
}

// Warn logs a warning message with context.
func Warn(ctx context.Context, msg string) {
	WithContext(ctx).Warn().Msg(msg)
}
