package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	CorrelatedIDKey     contextKey = "correlation_id"
	LoggerKeyForContext contextKey = "logger"
)

// Logger wraps slog so request-scoped fields can be attached from a context.
type Logger struct {
	*slog.Logger
}

// NewLoggerWithJSONOutput logs to stdout at LOG_LEVEL (debug, info, warn, error).
// LOG_FORMAT=text switches to the human-readable handler for local work.
func NewLoggerWithJSONOutput() *Logger {
	return NewLogger(os.Stdout, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

func NewLogger(w io.Writer, format, level string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	return &Logger{Logger: l.Logger.With(string(CorrelatedIDKey), GetOrGenerateCorrelationID(ctx))}
}

func GenerateCorrelationID() string {
	return uuid.NewString()
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelatedIDKey, id)
}

func GetOrGenerateCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelatedIDKey).(string); ok && id != "" {
		return id
	}
	return GenerateCorrelationID()
}

func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerKeyForContext, logger)
}

// GetLoggerInstanceFromContext prefers the logger the router stored on ctx.
// Otherwise it derives one from fallbackLogger, or a fresh stdout logger.
func GetLoggerInstanceFromContext(ctx context.Context, fallbackLogger *Logger) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(LoggerKeyForContext).(*Logger); ok && l != nil {
			return l
		}
	}

	if fallbackLogger == nil {
		fallbackLogger = NewLoggerWithJSONOutput()
	}
	if ctx == nil {
		return fallbackLogger
	}
	return fallbackLogger.WithCorrelationID(ctx)
}
