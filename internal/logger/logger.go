// Package logger provides tagged progress logging for the hnprep CLI.
// Info and Warn always print; Debug prints only in verbose mode.
// Library packages never log; only commands do.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables debug logging.
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
}

func logf(level, tag, format string, args ...any) {
	fmt.Fprintf(output, "%s %s [%s] "+format+"\n",
		append([]any{now().Format("2006-01-02 15:04:05"), level, tag}, args...)...)
}

// Info prints an informational message.
func Info(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logf("INFO", tag, format, args...)
}

// Warn prints a warning message.
func Warn(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logf("WARN", tag, format, args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		logf("DEBUG", tag, format, args...)
	}
}
