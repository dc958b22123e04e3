// =============================================================================
// Gacha POS - Logger
// =============================================================================
//
// A small leveled logger. Every component takes the Logger interface so tests
// can pass Nop() and the CLI can pass a file-backed logger.
//
// LINE FORMAT:
//   [LEVEL] 2006-01-02 15:04:05 MST file.go:42 - message
//
// =============================================================================

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Logger is the logging interface used across the application.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string { return levelNames[l] }

// ParseLevel converts a config value to a Level.
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

// Config configures a file-backed logger.
type Config struct {
	// LogFile is created (with its directory) if missing and appended to.
	LogFile string

	// Level is the minimum level written.
	Level string

	// Console also writes to stderr.
	Console bool

	// Location is used for timestamps. Nil means time.Local.
	Location *time.Location
}

// StdLogger writes leveled lines to one or more writers.
type StdLogger struct {
	mu    sync.Mutex
	out   *log.Logger
	file  *os.File
	level Level
	loc   *time.Location
}

// New opens the log file and returns a logger writing to it.
func New(cfg Config) (*StdLogger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	var w io.Writer = f
	if cfg.Console {
		w = io.MultiWriter(os.Stderr, f)
	}

	l := NewWriter(w, level, cfg.Location)
	l.file = f
	return l, nil
}

// NewWriter returns a logger writing to w.
func NewWriter(w io.Writer, level Level, loc *time.Location) *StdLogger {
	if loc == nil {
		loc = time.Local
	}
	return &StdLogger{
		out:   log.New(w, "", 0),
		level: level,
		loc:   loc,
	}
}

// Close closes the underlying log file, if any.
func (l *StdLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.write(LevelDebug, msg, args...) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.write(LevelInfo, msg, args...) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.write(LevelWarn, msg, args...) }
func (l *StdLogger) Error(msg string, args ...interface{}) { l.write(LevelError, msg, args...) }

func (l *StdLogger) write(level Level, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "???", 0
	}
	ts := time.Now().In(l.loc).Format("2006-01-02 15:04:05 MST")

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("[%s] %s %s:%d - %s", level, ts, filepath.Base(file), line, fmt.Sprintf(msg, args...))
}

// =============================================================================
// NO-OP LOGGER
// =============================================================================

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }
