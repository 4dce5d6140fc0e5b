package sfstream

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNoopLoggerIsSilent(t *testing.T) {
	var l Logger = noopLogger{}
	l.Debug("debug", "k", "v")
	l.Info("info")
	l.Warn("warn")
	l.Error("error", "err", "boom")
}

func TestSlogLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := NewSlogLogger(slog.New(handler))

	l.Debug("debug message", "channel", "/topic/x")
	l.Info("info message", "attempt", 3)
	l.Warn("warn message")
	l.Error("error message", "err", "boom")

	out := buf.String()
	for _, want := range []string{
		"debug message",
		"channel=/topic/x",
		"info message",
		"attempt=3",
		"warn message",
		"error message",
		"err=boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSimpleLoggerLevels(t *testing.T) {
	l := NewSimpleLogger()
	var buf bytes.Buffer
	l.l.SetOutput(&buf)

	l.Debug("debugging", "k", 1)
	l.Info("informing")
	l.Warn("warning")
	l.Error("failing", "err", "boom")

	out := buf.String()
	for _, want := range []string{"DEBUG", "INFO", "WARN", "ERROR", "debugging", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
