package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogEntry is the JSON structure written by the file logger
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"traceId,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// FileLogger writes JSON log lines to a file, rotating at maxFileSize
type FileLogger struct {
	mu          sync.Mutex
	file        *os.File
	filePath    string
	level       LogLevel
	traceID     string
	maxFileSize int64
	currentSize int64
}

// FileLoggerConfig contains configuration for file logger
type FileLoggerConfig struct {
	FilePath    string
	Level       LogLevel
	MaxFileSize int64 // bytes, 0 disables rotation
}

// NewFileLogger creates a new file logger
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &FileLogger{
		file:        file,
		filePath:    config.FilePath,
		level:       config.Level,
		maxFileSize: config.MaxFileSize,
		currentSize: info.Size(),
	}, nil
}

func (l *FileLogger) log(level LogLevel, msg string, fields ...Field) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxFileSize > 0 && l.currentSize >= l.maxFileSize {
		if err := l.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to rotate log file: %v\n", err)
		}
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Message:   msg,
		TraceID:   l.traceID,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, field := range fields {
			entry.Fields[field.Key] = field.Value
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
		return
	}
	data = append(data, '\n')

	n, err := l.file.Write(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log entry: %v\n", err)
		return
	}
	l.currentSize += int64(n)
}

// rotate renames the active file with a timestamp suffix and starts a new one
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	rotated := fmt.Sprintf("%s.%s", l.filePath, time.Now().UTC().Format("20060102-150405"))
	if err := os.Rename(l.filePath, rotated); err != nil {
		file, _ := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		l.file = file
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create new log file: %w", err)
	}
	l.file = file
	l.currentSize = 0
	return nil
}

func (l *FileLogger) Debug(msg string, fields ...Field) { l.log(DEBUG, msg, fields...) }
func (l *FileLogger) Info(msg string, fields ...Field)  { l.log(INFO, msg, fields...) }
func (l *FileLogger) Warn(msg string, fields ...Field)  { l.log(WARN, msg, fields...) }
func (l *FileLogger) Error(msg string, fields ...Field) { l.log(ERROR, msg, fields...) }

// WithTraceID returns a new logger with the trace ID set
func (l *FileLogger) WithTraceID(traceID string) Logger {
	return &FileLogger{
		file:        l.file,
		filePath:    l.filePath,
		level:       l.level,
		traceID:     traceID,
		maxFileSize: l.maxFileSize,
		currentSize: l.currentSize,
	}
}

// WithContext returns a new logger that extracts trace ID from context
func (l *FileLogger) WithContext(ctx context.Context) Logger {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return l
	}
	return l.WithTraceID(traceID)
}

// SetLevel sets the minimum log level
func (l *FileLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close closes the log file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
