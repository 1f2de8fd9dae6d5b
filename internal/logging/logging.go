// Package logging provides structured logging with request trace IDs.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// Logger wraps a zerolog logger with trace-aware helpers.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger for the named service writing JSON to stderr.
func New(service string) *Logger {
	return NewWithOutput(service, os.Stderr)
}

// NewWithOutput creates a logger writing to the given output.
func NewWithOutput(service string, out io.Writer) *Logger {
	zl := zerolog.New(out).With().
		Timestamp().
		Str("service", service).
		Logger()
	return &Logger{zl: zl}
}

// NewTraceID generates a fresh trace ID.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID returns a context carrying the trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext returns the trace ID in ctx, if any.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

func (l *Logger) event(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if id := TraceIDFromContext(ctx); id != "" {
		e = e.Str("trace_id", id)
	}
	return e
}

// Info logs an informational message.
func (l *Logger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.event(ctx, l.zl.Info()).Fields(fields).Msg(msg)
}

// Error logs an error with context fields.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	l.event(ctx, l.zl.Error()).Err(err).Fields(fields).Msg(msg)
}

// Warn logs a warning.
func (l *Logger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.event(ctx, l.zl.Warn()).Fields(fields).Msg(msg)
}

// LogRequest logs one completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.event(ctx, l.zl.Info()).
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", duration).
		Msg("request")
}

// LogSecurityEvent logs an auth or rate-limit event.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.event(ctx, l.zl.Warn()).
		Str("event", event).
		Fields(fields).
		Msg("security")
}
