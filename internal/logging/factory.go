package logging

import "context"

// LogConfig selects which loggers NewLogger builds
type LogConfig struct {
	Level           LogLevel
	OutputFile      string
	EnableConsole   bool
	EnableDebug     bool
	RedactSensitive bool
	EnableColor     bool
	EnableTimestamp bool
	MaxFileSize     int64
}

// DefaultLogConfig returns the standard configuration
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:           INFO,
		EnableConsole:   true,
		RedactSensitive: true,
		EnableColor:     true,
		EnableTimestamp: true,
		MaxFileSize:     100 * 1024 * 1024,
	}
}

// NewLogger builds a logger from config: console, file, both, or no-op
func NewLogger(config LogConfig) (Logger, error) {
	level := config.Level
	if config.EnableDebug {
		level = DEBUG
	}

	var console Logger
	if config.EnableConsole {
		console = NewConsoleLogger(ConsoleLoggerConfig{
			Level:            level,
			ColorEnabled:     config.EnableColor,
			TimestampEnabled: config.EnableTimestamp,
			RedactSensitive:  config.RedactSensitive,
		})
	}

	var file Logger
	if config.OutputFile != "" {
		fl, err := NewFileLogger(FileLoggerConfig{
			FilePath:    config.OutputFile,
			Level:       level,
			MaxFileSize: config.MaxFileSize,
		})
		if err != nil {
			return nil, err
		}
		file = fl
	}

	switch {
	case console != nil && file != nil:
		return NewMultiLogger(console, file), nil
	case console != nil:
		return console, nil
	case file != nil:
		return file, nil
	default:
		return NewNoOpLogger(), nil
	}
}

// MultiLogger fans out to several loggers
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to all given loggers
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) Debug(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Debug(msg, fields...)
	}
}

func (m *MultiLogger) Info(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Info(msg, fields...)
	}
}

func (m *MultiLogger) Warn(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Warn(msg, fields...)
	}
}

func (m *MultiLogger) Error(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Error(msg, fields...)
	}
}

// WithTraceID returns a new multi logger with the trace ID set on each child
func (m *MultiLogger) WithTraceID(traceID string) Logger {
	children := make([]Logger, len(m.loggers))
	for i, l := range m.loggers {
		children[i] = l.WithTraceID(traceID)
	}
	return &MultiLogger{loggers: children}
}

// WithContext returns a new logger that extracts trace ID from context
func (m *MultiLogger) WithContext(ctx context.Context) Logger {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return m
	}
	return m.WithTraceID(traceID)
}

// SetLevel sets the minimum log level on all children
func (m *MultiLogger) SetLevel(level LogLevel) {
	for _, l := range m.loggers {
		l.SetLevel(level)
	}
}

// Close closes all children, returning the first error
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
