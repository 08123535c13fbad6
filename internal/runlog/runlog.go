// Package runlog provides the per-run logger: a timestamped directory holding
// a setup.log, with every line mirrored to the console. A Logger is created
// once at the start of a run and passed explicitly to every component.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Log file name inside the run directory.
const logFileName = "setup.log"

// Logger writes tagged, timestamped lines to both a console writer and the
// run's log file. Safe to call on a nil receiver; all methods become no-ops.
type Logger struct {
	dir     string
	file    *os.File
	console io.Writer
}

// New creates a run directory named after the start time under baseDir and
// opens setup.log inside it for appending.
func New(baseDir string, start time.Time) (*Logger, error) {
	dir := filepath.Join(baseDir, start.Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, logFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- path is derived from config, not user input
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return &Logger{
		dir:     dir,
		file:    file,
		console: os.Stdout,
	}, nil
}

// NewWithConsole is like New but writes console output to the given writer.
// Used by tests to capture output.
func NewWithConsole(baseDir string, start time.Time, console io.Writer) (*Logger, error) {
	l, err := New(baseDir, start)
	if err != nil {
		return nil, err
	}
	l.console = console
	return l, nil
}

// Dir returns the run directory path.
func (l *Logger) Dir() string {
	if l == nil {
		return ""
	}
	return l.dir
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("failed to sync log file in %s: %w", l.dir, err)
	}
	return l.file.Close()
}

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...any) {
	l.line("INFO", fmt.Sprintf(format, args...))
}

// Warnf logs a warning line.
func (l *Logger) Warnf(format string, args ...any) {
	l.line("WARN", fmt.Sprintf(format, args...))
}

// Errorf logs an error line.
func (l *Logger) Errorf(format string, args ...any) {
	l.line("ERROR", fmt.Sprintf(format, args...))
}

// Processf logs a line describing a step that is about to run.
func (l *Logger) Processf(format string, args ...any) {
	l.line("PROCESS", fmt.Sprintf(format, args...))
}

// Raw logs a line verbatim, without tag or timestamp. Used for streamed
// output from external commands, which carries its own formatting.
func (l *Logger) Raw(line string) {
	if l == nil {
		return
	}
	l.write(line + "\n")
}

func (l *Logger) line(tag, msg string) {
	if l == nil {
		return
	}
	l.write(fmt.Sprintf("[%s] %s - %s\n", tag, time.Now().Format("2006-01-02 15:04:05"), msg))
}

func (l *Logger) write(s string) {
	if l.console != nil {
		_, _ = io.WriteString(l.console, s)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, s)
	}
}
