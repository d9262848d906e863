// Package logging provides the structured logger used across relnotes.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

type (
	// Level is a log level name as it appears in config files and flags.
	Level string

	// Logger defines the interface for structured logging.
	Logger interface {
		Debug(msg string, keyvals ...any)
		Info(msg string, keyvals ...any)
		Warn(msg string, keyvals ...any)
		Error(msg string, keyvals ...any)
	}

	loggerImpl struct {
		charmLogger *charmlog.Logger
	}
)

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Levels lists the accepted level names.
var Levels = []Level{DebugLevel, InfoLevel, WarnLevel, ErrorLevel}

var (
	mu            sync.RWMutex
	defaultLogger Logger = New(nil)
)

// ParseLevel converts a level name to a Level. Unknown names map to info.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case DebugLevel:
		return DebugLevel
	case WarnLevel:
		return WarnLevel
	case ErrorLevel:
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) charmLevel() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Config controls logger construction.
type Config struct {
	Level  Level
	Output io.Writer
	JSON   bool
	// Timestamps adds a time prefix to text output.
	Timestamps bool
}

// DefaultConfig logs info and above to stderr as text.
func DefaultConfig() *Config {
	return &Config{
		Level:  InfoLevel,
		Output: os.Stderr,
	}
}

// New builds a Logger from cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	charmLogger := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: cfg.Timestamps || cfg.JSON,
		TimeFormat:      "15:04:05",
		Level:           cfg.Level.charmLevel(),
		Prefix:          "relnotes",
	})
	if cfg.JSON {
		charmLogger.SetFormatter(charmlog.JSONFormatter)
	}
	return &loggerImpl{charmLogger: charmLogger}
}

func (l *loggerImpl) Debug(msg string, keyvals ...any) { l.charmLogger.Debug(msg, keyvals...) }
func (l *loggerImpl) Info(msg string, keyvals ...any)  { l.charmLogger.Info(msg, keyvals...) }
func (l *loggerImpl) Warn(msg string, keyvals ...any)  { l.charmLogger.Warn(msg, keyvals...) }
func (l *loggerImpl) Error(msg string, keyvals ...any) { l.charmLogger.Error(msg, keyvals...) }

// Init replaces the default logger.
func Init(cfg *Config) Logger {
	logger := New(cfg)
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
	return logger
}

// Default returns the process-wide logger.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debugf adapts the default logger to printf-style debug hooks such as
// git.SetDebugLogger.
func Debugf(format string, args ...any) {
	Default().Debug(fmt.Sprintf(format, args...))
}

func Debug(msg string, keyvals ...any) { Default().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...any)  { Default().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Default().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Default().Error(msg, keyvals...) }

// Discard is a Logger that drops everything.
var Discard Logger = New(&Config{Level: ErrorLevel, Output: io.Discard})
