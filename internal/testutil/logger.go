package testutil

import (
	"fmt"
	"sync"

	"github.com/g1heapviz/pkg/utils"
)

// RecordingLogger is a utils.Logger that keeps every message for assertions.
type RecordingLogger struct {
	mu      sync.Mutex
	entries map[string][]string
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{entries: make(map[string][]string)}
}

func (l *RecordingLogger) record(level, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[level] = append(l.entries[level], fmt.Sprintf(msg, args...))
}

// Debug records a debug message.
func (l *RecordingLogger) Debug(msg string, args ...interface{}) { l.record("DEBUG", msg, args...) }

// Info records an info message.
func (l *RecordingLogger) Info(msg string, args ...interface{}) { l.record("INFO", msg, args...) }

// Warn records a warning message.
func (l *RecordingLogger) Warn(msg string, args ...interface{}) { l.record("WARN", msg, args...) }

// Error records an error message.
func (l *RecordingLogger) Error(msg string, args ...interface{}) { l.record("ERROR", msg, args...) }

// WithField returns the same logger; fields are not recorded.
func (l *RecordingLogger) WithField(key string, value interface{}) utils.Logger { return l }

// WithFields returns the same logger; fields are not recorded.
func (l *RecordingLogger) WithFields(fields map[string]interface{}) utils.Logger { return l }

// Messages returns the formatted messages logged at level (DEBUG, INFO, WARN
// or ERROR).
func (l *RecordingLogger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries[level]))
	copy(out, l.entries[level])
	return out
}
