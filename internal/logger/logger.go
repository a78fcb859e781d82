package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      []*os.File
	mu         sync.Mutex
}

// New creates a Logger writing to stdout/stderr and to info.log, warning.log
// and error.log under logDir. An empty logDir logs to the console only.
func New(logDir string) (*Logger, error) {
	if logDir == "" {
		return newWithWriters(os.Stdout, os.Stdout, os.Stderr), nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	l := &Logger{}
	var writers [3]io.Writer
	for i, name := range []string{"info.log", "warning.log", "error.log"} {
		f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("open log file %s: %w", name, err)
		}
		l.files = append(l.files, f)
		writers[i] = f
	}

	l.setup(io.MultiWriter(os.Stdout, writers[0]), io.MultiWriter(os.Stdout, writers[1]), io.MultiWriter(os.Stderr, writers[2]))
	return l, nil
}

// Discard returns a Logger that drops everything. Used by tests.
func Discard() *Logger {
	return newWithWriters(io.Discard, io.Discard, io.Discard)
}

func newWithWriters(info, warning, errw io.Writer) *Logger {
	l := &Logger{}
	l.setup(info, warning, errw)
	return l
}

func (l *Logger) setup(info, warning, errw io.Writer) {
	l.infoLog = log.New(info, "INFO    ", log.Ldate|log.Ltime)
	l.warningLog = log.New(warning, "WARNING ", log.Ldate|log.Ltime)
	l.errorLog = log.New(errw, "ERROR   ", log.Ldate|log.Ltime)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Printf(format, v...)
}

func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Printf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Printf(format, v...)
}

// Writer exposes the info stream, e.g. for gin's request logger.
func (l *Logger) Writer() io.Writer {
	return l.infoLog.Writer()
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.files = nil
	return first
}
