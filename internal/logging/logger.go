package logging

import (
	"context"
)

// LogLevel controls logging verbosity
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field is a structured key/value pair attached to a log message
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand constructor for Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger is the logging interface used throughout the tool
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithTraceID(traceID string) Logger
	WithContext(ctx context.Context) Logger
	SetLevel(level LogLevel)
	Close() error
}

type traceIDKey struct{}

// ContextWithTraceID returns a context carrying the given trace ID
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext extracts the trace ID from a context, if any
func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey{}).(string); ok {
		return v
	}
	return ""
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (*NoOpLogger) Debug(string, ...Field)           {}
func (*NoOpLogger) Info(string, ...Field)            {}
func (*NoOpLogger) Warn(string, ...Field)            {}
func (*NoOpLogger) Error(string, ...Field)           {}
func (l *NoOpLogger) WithTraceID(string) Logger      { return l }
func (l *NoOpLogger) WithContext(_ context.Context) Logger { return l }
func (*NoOpLogger) SetLevel(LogLevel)                {}
func (*NoOpLogger) Close() error                     { return nil }
