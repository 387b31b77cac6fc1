// Package logger is a thin process-wide wrapper around charmbracelet/log.
// Until Init is called every function is a no-op, so library packages can log
// freely without forcing output on tests or embedding programs.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Params configures the process logger.
type Params struct {
	Debug  bool
	Format string // "text" (default), "json" or "logfmt"
	Output io.Writer
	Prefix string
}

var (
	mu       sync.RWMutex
	instance *log.Logger
)

// Init installs the process logger. Calling it again replaces the previous one.
func Init(params Params) {
	out := params.Output
	if out == nil {
		out = os.Stderr
	}

	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}

	l := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          params.Prefix,
		Formatter:       formatter(params.Format),
	})

	mu.Lock()
	instance = l
	mu.Unlock()
}

// Reset removes the process logger, turning every call back into a no-op.
func Reset() {
	mu.Lock()
	instance = nil
	mu.Unlock()
}

func formatter(name string) log.Formatter {
	switch strings.ToLower(name) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func get() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Debug writes a message at DEBUG level.
func Debug(message string, keyvals ...any) {
	if l := get(); l != nil {
		l.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level.
func Info(message string, keyvals ...any) {
	if l := get(); l != nil {
		l.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level.
func Warn(message string, keyvals ...any) {
	if l := get(); l != nil {
		l.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level.
func Error(message string, keyvals ...any) {
	if l := get(); l != nil {
		l.Error(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and exits the process.
func Fatal(message string, keyvals ...any) {
	if l := get(); l != nil {
		l.Fatal(message, keyvals...)
	}
	os.Exit(1)
}
