// Package logx provides structured logging with component-scoped loggers
// and an in-memory buffer of recent entries for log consumers.
package logx

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Level identifies the severity of a log entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes timestamped, component-tagged log lines.
type Logger struct {
	component string
	logger    *log.Logger
}

// Entry is a structured log entry retained in the in-memory buffer.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Component string `json:"component"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// buffer keeps the most recent log entries so status consumers can
// replay them without tailing process output.
type buffer struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
}

//nolint:gochecknoglobals // Process-wide log buffer, mirrors stdlib log's default logger.
var (
	debugEnabled bool
	debugMu      sync.RWMutex

	recent = &buffer{maxSize: 1000}
)

// SetDebug toggles debug-level output process-wide.
func SetDebug(enabled bool) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugEnabled = enabled
}

// DebugEnabled reports whether debug-level output is active.
func DebugEnabled() bool {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugEnabled
}

// NewLogger creates a logger scoped to the given component name.
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stderr, "", 0),
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s: %s", timestamp, l.component, level, message)

	recent.add(Entry{
		Timestamp: timestamp,
		Component: l.component,
		Level:     string(level),
		Message:   message,
	})
}

// Debug logs a debug message when debug logging is enabled.
func (l *Logger) Debug(format string, args ...any) {
	if !DebugEnabled() {
		return
	}
	l.log(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

func (b *buffer) add(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry)
	if len(b.entries) > b.maxSize {
		b.entries = b.entries[len(b.entries)-b.maxSize:]
	}
}

// RecentEntries returns a copy of buffered entries, newest last. A
// non-empty component filters to that component's entries.
func RecentEntries(component string) []Entry {
	recent.mu.RLock()
	defer recent.mu.RUnlock()

	out := make([]Entry, 0, len(recent.entries))
	for i := range recent.entries {
		if component != "" && recent.entries[i].Component != component {
			continue
		}
		out = append(out, recent.entries[i])
	}
	return out
}
