package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is the minimum severity a Logger writes.
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
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger provides leveled logging capabilities
// This abstraction allows swapping logging implementations
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})
}

// stdLogger implements Logger on top of the standard log package,
// one *log.Logger per level so each line carries a [LEVEL] prefix.
type stdLogger struct {
	level       Level
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
}

// NewDefaultLogger creates an info-level logger writing errors and warnings
// to stderr and everything else to stdout.
func NewDefaultLogger() Logger {
	const flags = log.LstdFlags | log.Lshortfile
	return &stdLogger{
		level:       LevelInfo,
		errorLogger: log.New(os.Stderr, "[ERROR] ", flags),
		warnLogger:  log.New(os.Stderr, "[WARN] ", flags),
		infoLogger:  log.New(os.Stdout, "[INFO] ", flags),
		debugLogger: log.New(os.Stdout, "[DEBUG] ", flags),
	}
}

// New creates a logger that writes every level at or above level to w.
func New(w io.Writer, level Level) Logger {
	const flags = log.LstdFlags | log.Lmicroseconds
	return &stdLogger{
		level:       level,
		errorLogger: log.New(w, "[ERROR] ", flags),
		warnLogger:  log.New(w, "[WARN] ", flags),
		infoLogger:  log.New(w, "[INFO] ", flags),
		debugLogger: log.New(w, "[DEBUG] ", flags),
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return New(io.Discard, LevelError+1)
}

func (l *stdLogger) Error(args ...interface{}) {
	if l.level <= LevelError {
		l.errorLogger.Output(2, fmt.Sprint(args...))
	}
}

func (l *stdLogger) Errorf(format string, args ...interface{}) {
	if l.level <= LevelError {
		l.errorLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *stdLogger) Warn(args ...interface{}) {
	if l.level <= LevelWarn {
		l.warnLogger.Output(2, fmt.Sprint(args...))
	}
}

func (l *stdLogger) Warnf(format string, args ...interface{}) {
	if l.level <= LevelWarn {
		l.warnLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *stdLogger) Info(args ...interface{}) {
	if l.level <= LevelInfo {
		l.infoLogger.Output(2, fmt.Sprint(args...))
	}
}

func (l *stdLogger) Infof(format string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.infoLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *stdLogger) Debug(args ...interface{}) {
	if l.level <= LevelDebug {
		l.debugLogger.Output(2, fmt.Sprint(args...))
	}
}

func (l *stdLogger) Debugf(format string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.debugLogger.Output(2, fmt.Sprintf(format, args...))
	}
}
