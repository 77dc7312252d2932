// Package logging provides the structured logger used across the render
// pipeline. Components accept a Logger through options and default to Nop so
// library callers stay silent unless they opt in.
package logging

import (
	"io"
	"strings"
)

// Level represents the severity of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the uppercase level name.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to InfoLevel.
func ParseLevel(raw string) Level {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field is a key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with any value.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is the logging contract used by the pipeline.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	WithFields(fields ...Field) Logger
}

// Config holds logger configuration.
type Config struct {
	Level  Level
	Output io.Writer
	Name   string
	// JSON switches the encoder from console to JSON lines.
	JSON bool
}

type nopLogger struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...Field) {}

func (nopLogger) Info(string, ...Field) {}

func (nopLogger) Warn(string, ...Field) {}

func (nopLogger) Error(string, error, ...Field) {}

func (n nopLogger) WithFields(...Field) Logger { return n }

// OrNop returns logger, or Nop when logger is nil.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}
