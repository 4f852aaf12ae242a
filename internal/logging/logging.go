// Package logging provides the leveled logger shared by the loaders and
// commands. It is a thin layer over logrus.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level orders log verbosity.
type Level = logrus.Level

const (
	LevelError = logrus.ErrorLevel
	LevelWarn  = logrus.WarnLevel
	LevelInfo  = logrus.InfoLevel
	LevelDebug = logrus.DebugLevel
)

// ParseLevel maps a level name such as "warn" or "DEBUG" to a Level.
// Unknown names are LevelInfo.
func ParseLevel(s string) Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return LevelInfo
	}
	return level
}

// Logger writes leveled lines. A nil *Logger discards everything.
type Logger struct {
	l *logrus.Logger
}

// New creates a logger writing plain text to w at the given level.
func New(w io.Writer, level Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return &Logger{l: l}
}

// Default logs to stderr at the level named by LOG_LEVEL.
var Default = New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))

// SetLevel changes the minimum level that is written.
func (l *Logger) SetLevel(level Level) {
	if l != nil {
		l.l.SetLevel(level)
	}
}

// WithField returns an entry carrying key=value on every line.
func (l *Logger) WithField(key string, value any) *logrus.Entry {
	if l == nil {
		return logrus.NewEntry(discard)
	}
	return l.l.WithField(key, value)
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (l *Logger) Errorf(format string, args ...any) {
	if l != nil {
		l.l.Errorf(format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...any) {
	if l != nil {
		l.l.Warnf(format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	if l != nil {
		l.l.Infof(format, args...)
	}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l != nil {
		l.l.Debugf(format, args...)
	}
}
