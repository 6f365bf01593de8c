// Package logging provides structured logging infrastructure for the ctxprobe
// application. It wraps Go's standard log/slog package with context-aware
// logging, run correlation, and domain-specific log attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// contextKey is used for storing logger-related values in context.
type contextKey string

const (
	// RunIDKey is the context key for probe run IDs.
	RunIDKey contextKey = "run_id"
	// ModelKey is the context key for target model IDs.
	ModelKey contextKey = "model"
	// StrategyKey is the context key for search strategy names.
	StrategyKey contextKey = "strategy"
	// ProviderKey is the context key for provider names.
	ProviderKey contextKey = "provider"
)

// Level represents log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents log output formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     os.Stderr,
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps slog.Logger with additional functionality for ctxprobe.
type Logger struct {
	slogger *slog.Logger
	level   slog.Level
	mu      sync.RWMutex
}

// New creates a new Logger with the provided configuration.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize time format
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		slogger: slog.New(handler),
		level:   level,
	}
}

// Discard returns a logger that drops all records. Useful as a default
// when no logger is injected.
func Discard() *Logger {
	return New(Config{Level: LevelError, Format: FormatText, Output: io.Discard})
}

// parseLevel converts a Level to slog.Level.
func parseLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slogger: l.slogger.With(args...),
		level:   l.level,
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// DebugContext logs at debug level with context enrichment.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// InfoContext logs at info level with context enrichment.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// WarnContext logs at warn level with context enrichment.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// ErrorContext logs at error level with context enrichment.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// enrichArgs extracts context values and adds them as log attributes.
func (l *Logger) enrichArgs(ctx context.Context, args []any) []any {
	enriched := make([]any, 0, len(args)+8)

	if v := ctx.Value(RunIDKey); v != nil {
		enriched = append(enriched, "run_id", v)
	}
	if v := ctx.Value(ModelKey); v != nil {
		enriched = append(enriched, "model", v)
	}
	if v := ctx.Value(StrategyKey); v != nil {
		enriched = append(enriched, "strategy", v)
	}
	if v := ctx.Value(ProviderKey); v != nil {
		enriched = append(enriched, "provider", v)
	}

	enriched = append(enriched, args...)
	return enriched
}

// Underlying returns the underlying slog.Logger.
func (l *Logger) Underlying() *slog.Logger {
	return l.slogger
}

// --- Context helpers ---

// WithRunID adds a probe run ID to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// WithModel adds a target model ID to the context.
func WithModel(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ModelKey, id)
}

// WithStrategy adds a search strategy name to the context.
func WithStrategy(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, StrategyKey, name)
}

// WithProvider adds a provider name to the context.
func WithProvider(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ProviderKey, name)
}

// RunID extracts the probe run ID from context.
func RunID(ctx context.Context) string {
	if v := ctx.Value(RunIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// --- Domain-specific logging helpers ---

// LogRunStart logs the start of a probe run.
func LogRunStart(ctx context.Context, logger *Logger, modelID string, strategy string, minTokens, maxTokens int) {
	logger.InfoContext(ctx, "probe run started",
		"model", modelID,
		"strategy", strategy,
		"min_tokens", minTokens,
		"max_tokens", maxTokens,
	)
}

// LogStepComplete logs a completed probe step.
func LogStepComplete(ctx context.Context, logger *Logger, number, targetTokens, inputTokens int, outcome string, latency time.Duration) {
	logger.InfoContext(ctx, "probe step completed",
		"step", number,
		"target_tokens", targetTokens,
		"input_tokens", inputTokens,
		"outcome", outcome,
		"latency_ms", latency.Milliseconds(),
	)
}

// LogStepRetry logs a transient failure about to be retried.
func LogStepRetry(ctx context.Context, logger *Logger, attempt int, delay time.Duration, err error) {
	logger.WarnContext(ctx, "transient failure, retrying",
		"attempt", attempt,
		"delay_ms", delay.Milliseconds(),
		"error", err.Error(),
	)
}

// LogRunComplete logs the completion of a probe run.
func LogRunComplete(ctx context.Context, logger *Logger, boundary int, steps int, status string, totalCost float64, duration time.Duration) {
	logger.InfoContext(ctx, "probe run completed",
		"boundary", boundary,
		"steps", steps,
		"status", status,
		"total_cost_usd", totalCost,
		"duration_ms", duration.Milliseconds(),
	)
}
