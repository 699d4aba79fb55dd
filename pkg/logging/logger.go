package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	buildIDKey   contextKey = "buildID"
	requestIDKey contextKey = "requestID"
)

// LevelTrace sits below DEBUG for very chatty output
const LevelTrace = slog.LevelDebug - 4

var (
	logger *slog.Logger
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

func init() {
	SetLevel(slog.LevelInfo)
}

// SetLevel changes the logging level. Errors go to stderr, everything else to stdout.
func SetLevel(level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	logger = slog.New(newSplitHandler(NewCompactHandler(out, opts), NewCompactHandler(errOut, opts)))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	logger = slog.New(newSplitHandler(slog.NewJSONHandler(out, opts), slog.NewJSONHandler(errOut, opts)))
}

// SetOutput sends all records, errors included, to w in the compact format. Used by tests.
func SetOutput(w io.Writer, level slog.Level) {
	SetOutputs(w, w, level)
}

// SetOutputs sets the writers for regular and error records
func SetOutputs(w, errW io.Writer, level slog.Level) {
	out, errOut = w, errW
	SetLevel(level)
}

// LevelFromVerbosity maps a verbosity name or a -v count to a slog level.
// An explicit name wins over the count.
func LevelFromVerbosity(name string, count int) slog.Level {
	switch name {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	}
	switch {
	case count >= 2:
		return LevelTrace
	case count == 1:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// WithBuildID tags the context with the ID of the build it belongs to
func WithBuildID(ctx context.Context, buildID string) context.Context {
	return context.WithValue(ctx, buildIDKey, buildID)
}

// GetBuildID retrieves the build ID from context
func GetBuildID(ctx context.Context) string {
	if id, ok := ctx.Value(buildIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// withContextIDs prepends build and request IDs to the log attributes if present
func withContextIDs(ctx context.Context, args []any) []any {
	if requestID := GetRequestID(ctx); requestID != "" {
		args = append([]any{"requestID", requestID}, args...)
	}
	if buildID := GetBuildID(ctx); buildID != "" {
		args = append([]any{"buildID", buildID}, args...)
	}
	return args
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, withContextIDs(ctx, args)...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Error logs at ERROR level (build failures and logical bugs)
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Fatal logs at ERROR level and exits with status 1
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

// FatalContext logs at ERROR level with context and exits with status 1
func FatalContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, withContextIDs(ctx, args)...)
	os.Exit(1)
}
