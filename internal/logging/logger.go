package logging

import (
	"io"
	"log"
	"strings"
)

// #region level
// Level represents logging verbosity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// ParseLevel maps ERROR/WARN/INFO/DEBUG (any case) to a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "INFO":
		return LevelInfo, true
	case "DEBUG":
		return LevelDebug, true
	default:
		return LevelInfo, false
	}
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}

// #endregion level

// #region logger
// Logger is a leveled wrapper over the standard logger. Every line carries
// the component tag, e.g. "[SYNTH] [WARN] ...".
type Logger struct {
	level Level
	tag   string
	out   *log.Logger
}

// NewLogger creates a logger writing to w.
func NewLogger(level Level, w io.Writer) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return NewLogger(LevelError, io.Discard)
}

// WithTag returns a copy of l that prefixes lines with [tag].
func (l *Logger) WithTag(tag string) *Logger {
	c := *l
	c.tag = tag
	return &c
}

// Level returns the active level.
func (l *Logger) Level() Level { return l.level }

func (l *Logger) Error(format string, args ...interface{}) { l.logf(LevelError, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if l == nil || level > l.level {
		return
	}
	prefix := "[" + level.String() + "] "
	if l.tag != "" {
		prefix = "[" + l.tag + "] " + prefix
	}
	l.out.Printf(prefix+format, args...)
}

// #endregion logger
