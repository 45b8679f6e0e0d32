// Package logger provides leveled structured logging for the agents and the
// simulation driver. Output is human-readable by default and can switch to
// JSON lines for machine consumption.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger writes leveled messages with optional structured fields.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	json   bool
	fields map[string]interface{}
}

// New creates a logger writing human-readable lines to stdout at info level.
func New() *Logger {
	return &Logger{out: os.Stdout, level: LevelInfo}
}

// SetOutput redirects log output.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// SetLevel sets the minimum level that gets written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetJSON switches between JSON lines and human-readable output.
func (l *Logger) SetJSON(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.json = enabled
}

// WithField returns a derived logger carrying an extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a derived logger carrying extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{out: l.out, level: l.level, json: l.json, fields: merged}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format(time.RFC3339)

	if l.json {
		data, err := json.Marshal(entry{
			Timestamp: ts,
			Level:     level.String(),
			Message:   msg,
			Fields:    l.fields,
		})
		if err != nil {
			_, _ = fmt.Fprintf(l.out, `{"error":"failed to marshal log entry: %s"}`+"\n", err)
			return
		}
		_, _ = fmt.Fprintln(l.out, string(data))
		return
	}

	suffix := ""
	for k, v := range l.fields {
		suffix += fmt.Sprintf(" %s=%v", k, v)
	}
	_, _ = fmt.Fprintf(l.out, "%s [%s] %s%s\n", ts, level, msg, suffix)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

var defaultLogger = New()

// SetDefaultLevel sets the level of the package-level logger.
func SetDefaultLevel(level Level) { defaultLogger.SetLevel(level) }

// SetDefaultJSON toggles JSON output on the package-level logger.
func SetDefaultJSON(enabled bool) { defaultLogger.SetJSON(enabled) }

// Debug logs a debug message using the default logger.
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }

// Info logs an info message using the default logger.
func Info(format string, args ...interface{}) { defaultLogger.Info(format, args...) }

// Warn logs a warning message using the default logger.
func Warn(format string, args ...interface{}) { defaultLogger.Warn(format, args...) }

// Error logs an error message using the default logger.
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }

// WithField returns a logger derived from the default logger.
func WithField(key string, value interface{}) *Logger { return defaultLogger.WithField(key, value) }

// WithFields returns a logger derived from the default logger.
func WithFields(fields map[string]interface{}) *Logger { return defaultLogger.WithFields(fields) }
