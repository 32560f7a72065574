// Package logger provides verbose logging for the Athena CLI.
// When verbose mode is enabled via the --verbose flag, pipeline messages
// are printed to stderr to help users follow ingestion and retrieval.
// Errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	base              = newZap(os.Stderr)
)

// newZap builds a console logger that writes "[LEVEL] message" lines.
func newZap(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:   "level",
		MessageKey: "msg",
		EncodeLevel: func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString("[" + l.CapitalString() + "]")
		},
		ConsoleSeparator: " ",
		LineEnding:       "\n",
	})
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newZap(w)
}

// Zap returns the structured logger. Entries below error level are
// dropped unless verbose mode is enabled.
func Zap() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		return base
	}
	return base.WithOptions(zap.IncreaseLevel(zap.ErrorLevel))
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(zapcore.DebugLevel, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(zapcore.InfoLevel, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(zapcore.WarnLevel, format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	logf(zapcore.ErrorLevel, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func logf(level zapcore.Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && level < zapcore.ErrorLevel {
		return
	}
	if ce := base.Check(level, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}
