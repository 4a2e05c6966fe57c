package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_ConsoleOnly(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: INFO, EnableConsole: true})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	if _, ok := logger.(*ConsoleLogger); !ok {
		t.Errorf("Expected ConsoleLogger, got %T", logger)
	}
}

func TestNewLogger_FileOnly(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(LogConfig{Level: INFO, OutputFile: logPath})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	if _, ok := logger.(*FileLogger); !ok {
		t.Errorf("Expected FileLogger, got %T", logger)
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestNewLogger_Both(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(LogConfig{Level: INFO, EnableConsole: true, OutputFile: logPath})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	if _, ok := logger.(*MultiLogger); !ok {
		t.Errorf("Expected MultiLogger, got %T", logger)
	}
}

func TestNewLogger_NoOp(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: INFO})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if _, ok := logger.(*NoOpLogger); !ok {
		t.Errorf("Expected NoOpLogger, got %T", logger)
	}
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(ConsoleLoggerConfig{Writer: &buf, Level: WARN})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("Messages below WARN were not filtered: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN/ERROR messages missing: %q", out)
	}
}

func TestConsoleLogger_RedactsTokens(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(ConsoleLoggerConfig{Writer: &buf, Level: DEBUG, RedactSensitive: true})

	logger.Info("using token hf_abcDEF1234567890")
	logger.Info("header", F("auth", "Bearer sometoken123"))

	out := buf.String()
	if strings.Contains(out, "hf_abcDEF1234567890") {
		t.Errorf("Hub token leaked into log output: %q", out)
	}
	if strings.Contains(out, "sometoken123") {
		t.Errorf("Bearer token leaked into log output: %q", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("Expected redaction marker in output: %q", out)
	}
}

func TestConsoleLogger_TraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(ConsoleLoggerConfig{Writer: &buf, Level: INFO})

	traced := logger.WithTraceID("0123456789abcdef")
	traced.Info("hello")

	if !strings.Contains(buf.String(), "[01234567]") {
		t.Errorf("Expected shortened trace ID in output, got %q", buf.String())
	}
}

func TestFileLogger_WritesJSONEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewFileLogger(FileLoggerConfig{FilePath: logPath, Level: INFO})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	logger.Info("uploaded batch", F("batch", 3), F("files", 500))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("Log entry is not valid JSON: %v", err)
	}
	if entry.Level != "INFO" || entry.Message != "uploaded batch" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.Fields["batch"] != float64(3) {
		t.Errorf("Expected batch field=3, got %v", entry.Fields["batch"])
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	logger, err := NewFileLogger(FileLoggerConfig{FilePath: logPath, Level: INFO, MaxFileSize: 64})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	for i := 0; i < 10; i++ {
		logger.Info("a message long enough to exceed the rotation threshold quickly")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("Expected rotated log files, found %d file(s)", len(entries))
	}
}
