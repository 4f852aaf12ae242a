package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"error", LevelError},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{" debug ", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warnf("shown %d", 3)
	l.Errorf("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `level=warning msg="shown 3"`)
	assert.Contains(t, out, `level=error msg="shown 4"`)

	buf.Reset()
	l.SetLevel(LevelDebug)
	l.Debugf("now %s", "visible")
	assert.Contains(t, buf.String(), `level=debug msg="now visible"`)
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, LevelInfo).WithField("year", 2024).Infof("%d cases", 7)
	assert.Contains(t, buf.String(), `msg="7 cases" year=2024`)
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Warnf("nothing")
		l.SetLevel(LevelDebug)
		l.WithField("year", 2024).Infof("nothing")
	})
}
