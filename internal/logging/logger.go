package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Logger writes structured log records to a file.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	slog *slog.Logger
}

// Global logger instance (accessed atomically for thread-safety)
var globalLogger atomic.Pointer[Logger]

// Init initializes the global logger with the specified file path.
// If path is empty, logging is disabled.
func Init(path string, verbose bool) error {
	if path == "" {
		return nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: level})
	logger := &Logger{file: file, slog: slog.New(handler)}
	globalLogger.Store(logger)

	Info("=== tourctl log started ===")

	return nil
}

// Close closes the global logger, ensuring all pending writes complete first.
// Sets file to nil under lock to prevent race with concurrent log calls.
func Close() {
	logger := globalLogger.Swap(nil)
	if logger != nil {
		logger.mu.Lock()
		if logger.file != nil {
			logger.file.Close()
			logger.file = nil
		}
		logger.mu.Unlock()
	}
}

// Info logs an info message with optional key-value pairs
func Info(msg string, args ...any) {
	logRecord(slog.LevelInfo, msg, args...)
}

// Warn logs a warning message with optional key-value pairs
func Warn(msg string, args ...any) {
	logRecord(slog.LevelWarn, msg, args...)
}

// Error logs an error message with optional key-value pairs
func Error(msg string, args ...any) {
	logRecord(slog.LevelError, msg, args...)
}

// Debug logs a debug message with optional key-value pairs
func Debug(msg string, args ...any) {
	logRecord(slog.LevelDebug, msg, args...)
}

func logRecord(level slog.Level, msg string, args ...any) {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()

	// Check if file was closed (race with Close())
	if logger.file == nil {
		return
	}

	logger.slog.Log(context.Background(), level, msg, args...)
}

// IsEnabled returns true if logging is enabled
func IsEnabled() bool {
	return globalLogger.Load() != nil
}
