package testhelper

import (
	"fmt"
	"sync"

	"github.com/schemaflow/schemaflow/internal/logger"
)

// TestLogger is a logger.Logger implementation that records log entries
// for assertions in tests.
type TestLogger struct {
	mu            sync.RWMutex
	infoMessages  []LogEntry
	errorMessages []LogEntry
	warnMessages  []LogEntry
	debugMessages []LogEntry
	fields        map[string]interface{}
}

// LogEntry represents a recorded log entry
type LogEntry struct {
	Message string
	Fields  map[string]interface{}
}

// NewLogger creates a new test logger instance
func NewLogger() *TestLogger {
	return &TestLogger{fields: make(map[string]interface{})}
}

func (t *TestLogger) LogInfo(msg string, fields map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.infoMessages = append(t.infoMessages, LogEntry{Message: msg, Fields: t.mergeFields(fields)})
}

func (t *TestLogger) LogError(err error, msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	fields := map[string]interface{}{}
	if err != nil {
		fields["error"] = err.Error()
	}
	t.errorMessages = append(t.errorMessages, LogEntry{Message: msg, Fields: fields})
	return err
}

func (t *TestLogger) LogErrorf(err error, format string, args ...interface{}) error {
	return t.LogError(err, fmt.Sprintf(format, args...))
}

func (t *TestLogger) LogFatal(err error, context string) {
	t.LogError(err, context)
}

func (t *TestLogger) LogDebug(msg string, fields map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.debugMessages = append(t.debugMessages, LogEntry{Message: msg, Fields: t.mergeFields(fields)})
}

func (t *TestLogger) LogWarn(msg string, fields map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.warnMessages = append(t.warnMessages, LogEntry{Message: msg, Fields: t.mergeFields(fields)})
}

func (t *TestLogger) WithFields(fields map[string]interface{}) logger.Logger {
	t.mu.Lock()
	defer t.mu.Unlock()
	merged := t.mergeFields(fields)
	return &TestLogger{fields: merged}
}

// WarnMessages returns the recorded warning entries
func (t *TestLogger) WarnMessages() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]LogEntry(nil), t.warnMessages...)
}

// ErrorMessages returns the recorded error entries
func (t *TestLogger) ErrorMessages() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]LogEntry(nil), t.errorMessages...)
}

// InfoMessages returns the recorded info entries
func (t *TestLogger) InfoMessages() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]LogEntry(nil), t.infoMessages...)
}

func (t *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(t.fields)+len(fields))
	for k, v := range t.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}
