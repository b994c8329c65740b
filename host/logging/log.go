// Package logging provides component-tagged slog loggers for the host tools.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

// Host component identifiers.
const (
	ComponentBus       Component = "bus"
	ComponentSerial    Component = "serial"
	ComponentBusPirate Component = "buspirate"
	ComponentCLI       Component = "cli"
)

var (
	defaultLogger *slog.Logger
	level         = new(slog.LevelVar)
	mu            sync.RWMutex
)

func init() {
	level.Set(slog.LevelWarn)
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SetLevel sets the minimum level for every host logger.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Level returns the current minimum level.
func Level() slog.Level {
	return level.Level()
}

// SetOutput replaces the default logger with one writing to w, as JSON
// when json is set and as text otherwise.
func SetOutput(w io.Writer, json bool) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	SetLogger(slog.New(h))
}

// SetLogger replaces the default logger.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// For returns the default logger tagged with component.
func For(c Component) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger.With("component", string(c))
}

// Debug logs a debug message for component.
func Debug(c Component, msg string, args ...any) {
	For(c).Debug(msg, args...)
}

// Info logs an info message for component.
func Info(c Component, msg string, args ...any) {
	For(c).Info(msg, args...)
}

// Warn logs a warning for component.
func Warn(c Component, msg string, args ...any) {
	For(c).Warn(msg, args...)
}

// Error logs an error for component.
func Error(c Component, msg string, args ...any) {
	For(c).Error(msg, args...)
}

// CoreWriter adapts the firmware-side debug writer to slog so core debug
// messages appear in host logs at debug level.
func CoreWriter(c Component) func(string) {
	return func(s string) {
		Debug(c, s)
	}
}
