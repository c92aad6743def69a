// Package simlog is the simulator's structured logging facade. It wraps
// github.com/joeycumines/logiface (backed by github.com/joeycumines/stumpy)
// behind the small category/level surface the engine and metrics pipeline
// use, so callers outside this package never touch logiface generics
// directly.
package simlog

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Level mirrors the subset of syslog-style severities the engine actually
// emits.
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
		return "unknown"
	}
}

// Category tags which subsystem emitted a log entry. It is a plain string
// alias so callers outside this package (e.g. the metrics pipeline's
// minimal logging interface) can satisfy Logger-shaped interfaces without
// importing simlog.
type Category = string

const (
	CategoryQueue    Category = "teq"
	CategoryEngine   Category = "engine"
	CategoryStrategy Category = "strategy"
	CategoryHandler  Category = "handler"
	CategoryMetrics  Category = "metrics"
	CategoryConfig   Category = "config"
)

// Logger is the facade engine/metrics code logs through.
type Logger struct {
	inner *logiface.Logger[*stumpy.Event]
	runID string
}

// New builds a Logger writing newline-delimited JSON to w, at the given
// minimum level. runID tags every entry, letting multiple concurrent runs
// share one process-wide writer without interleaving confusion (the
// engine itself owns no shared state per spec.md's design notes; a
// process-wide logger is the one allowed exception).
func New(w io.Writer, level Level, runID string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	l := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(toLogifaceLevel(level)),
	)
	return &Logger{inner: l, runID: runID}
}

// NewNop returns a Logger that discards everything, for tests and
// scenario drivers that do not care about log output.
func NewNop() *Logger {
	return New(io.Discard, LevelError, "")
}

func toLogifaceLevel(l Level) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// Fields is a small structured-field bag accepted by Log.
type Fields = map[string]any

// Log emits a single structured entry.
func (l *Logger) Log(level Level, category Category, message string, fields Fields) {
	if l == nil || l.inner == nil {
		return
	}
	b := l.inner.Build(toLogifaceLevel(level))
	if b == nil || !b.Enabled() {
		return
	}
	b = b.Str("category", string(category))
	if l.runID != "" {
		b = b.Str("run_id", l.runID)
	}
	for k, v := range fields {
		b = b.Any(k, v)
	}
	b.Log(message)
}

func (l *Logger) Debug(category Category, message string, fields Fields) {
	l.Log(LevelDebug, category, message, fields)
}

func (l *Logger) Info(category Category, message string, fields Fields) {
	l.Log(LevelInfo, category, message, fields)
}

func (l *Logger) Warn(category Category, message string, fields Fields) {
	l.Log(LevelWarn, category, message, fields)
}

func (l *Logger) Error(category Category, message string, fields Fields) {
	l.Log(LevelError, category, message, fields)
}
