// Package logger provides the run log: every invocation writes a timestamped
// file under the state directory, optionally echoed to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger writes to a log file and, when echo is on, to stderr as well.
type Logger struct {
	w    io.Writer
	file *os.File
}

// DefaultDir returns the state directory holding run logs:
// <user cache dir>/kb-plugins, or .kb-plugins in the working directory when
// the platform reports no cache dir.
func DefaultDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "kb-plugins")
	}
	return ".kb-plugins"
}

// New creates a logger writing to <dir>/logs/run-<ts>.log. With echo set
// every line is also written to stderr.
func New(dir string, echo bool) (*Logger, error) {
	logsDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	ts := time.Now().Format("20060102-150405.000")
	logPath := filepath.Join(logsDir, fmt.Sprintf("run-%s.log", ts))

	f, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	var w io.Writer = f
	if echo {
		w = io.MultiWriter(os.Stderr, f)
	}
	return &Logger{w: w, file: f}, nil
}

// NewDiscard returns a logger that drops everything.
func NewDiscard() *Logger {
	return &Logger{w: io.Discard}
}

// LogPath returns the path of the current log file, or empty string if discarded.
func (l *Logger) LogPath() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Write implements io.Writer.
func (l *Logger) Write(p []byte) (n int, err error) {
	return l.w.Write(p)
}

// Printf writes a formatted line to the log.
func (l *Logger) Printf(format string, args ...any) {
	fmt.Fprintf(l.w, format+"\n", args...)
}

// Warnf writes a formatted line prefixed with "warning:".
func (l *Logger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.w, "warning: "+format+"\n", args...)
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LatestLogPath returns the most recent run log under dir, or "" if there is
// none.
func LatestLogPath(dir string) string {
	logsDir := filepath.Join(dir, "logs")
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return ""
	}
	// ReadDir sorts by name and run-<ts> names sort chronologically.
	latest := ""
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "run-") {
			latest = filepath.Join(logsDir, e.Name())
		}
	}
	return latest
}
