package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"apicheck/internal/common/types"
)

// Context keys for logging attributes
type contextKey string

const (
	runIDKey        contextKey = "run_id"
	scenarioIDKey   contextKey = "scenario_id"
	scenarioNameKey contextKey = "scenario"
)

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text

	// Output defaults to os.Stderr so that reports written to stdout stay parseable.
	Output io.Writer
}

// Setup initializes the global logger with the given configuration.
func Setup(cfg Config) {
	level := parseLevel(cfg.Level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, id types.RunID) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithScenario adds the scenario ID and name to the context.
func WithScenario(ctx context.Context, id types.ScenarioID, name string) context.Context {
	ctx = context.WithValue(ctx, scenarioIDKey, id)
	return context.WithValue(ctx, scenarioNameKey, name)
}

// RunIDFromContext extracts the run ID from context.
func RunIDFromContext(ctx context.Context) types.RunID {
	if id, ok := ctx.Value(runIDKey).(types.RunID); ok {
		return id
	}
	return ""
}

// ScenarioIDFromContext extracts the scenario ID from context.
func ScenarioIDFromContext(ctx context.Context) types.ScenarioID {
	if id, ok := ctx.Value(scenarioIDKey).(types.ScenarioID); ok {
		return id
	}
	return ""
}

// FromContext returns a logger with context attributes (run_id, scenario_id, scenario).
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if runID := RunIDFromContext(ctx); !runID.IsEmpty() {
		logger = logger.With("run_id", runID.String())
	}

	if scenarioID := ScenarioIDFromContext(ctx); !scenarioID.IsEmpty() {
		logger = logger.With("scenario_id", scenarioID.String())
	}

	if name, ok := ctx.Value(scenarioNameKey).(string); ok && name != "" {
		logger = logger.With("scenario", name)
	}

	return logger
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return slog.Default().With(args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// InfoContext logs at info level with context attributes.
func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// DebugContext logs at debug level with context attributes.
func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// WarnContext logs at warn level with context attributes.
func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs at error level with context attributes.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}
