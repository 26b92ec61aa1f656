// Package obslog is nodebridge's logger. The pack this module was grown
// from reaches for no third-party logging library anywhere; it logs via
// fmt to a lazily-opened file guarded by a mutex. This package keeps that
// exact shape rather than introducing a structured-logging dependency the
// source never uses: a stdio transport (our MCP adapter) must never write
// to stdout, so output is gated behind QuietMode and aimed at a file.
package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug can be overridden at build time:
// go build -ldflags "-X github.com/nodebridge-labs/nodebridge/internal/obslog.EnableDebug=true"
var EnableDebug = "false"

// QuietMode suppresses all output to stdio when a stdio-framed transport
// (the MCP adapter) is active.
var QuietMode = false

var (
	mu     sync.Mutex
	output io.Writer
	file   *os.File
)

// SetQuietMode toggles QuietMode.
func SetQuietMode(enabled bool) { QuietMode = enabled }

// SetOutput sets a custom writer for log output. Pass nil to disable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// InitLogFile opens a timestamped log file under os.TempDir()/nodebridge-logs
// and directs output there. Returns the path.
func InitLogFile() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Join(os.TempDir(), "nodebridge-logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("nodebridge-%s.log", time.Now().Format("2006-01-02T150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	file = f
	output = f
	return path, nil
}

// Close closes the log file if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		err := file.Close()
		file = nil
		output = nil
		return err
	}
	return nil
}

func enabled() bool {
	if QuietMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("NODEBRIDGE_DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Printf logs unconditionally when enabled() and a writer is configured.
func Printf(format string, args ...interface{}) {
	if !enabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG] "+format+"\n", args...)
	}
}

// Component logs with a component tag, e.g. obslog.Component("cache", "evicted %d entries", n).
func Component(component, format string, args ...interface{}) {
	if !enabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[%s] "+format+"\n", append([]interface{}{component}, args...)...)
	}
}

// Error logs an error-level message even when debug logging is off; like the
// other calls it writes nothing under QuietMode, and it requires a configured
// writer (CLI entry points call InitLogFile first).
func Error(component, format string, args ...interface{}) {
	if QuietMode {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[ERROR:%s] "+format+"\n", append([]interface{}{component}, args...)...)
	}
}
