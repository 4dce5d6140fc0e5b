package sfstream

import (
	"log"
	"log/slog"
	"os"
)

// Logger is the minimal structured logging interface the library emits to.
// Keys and values alternate, slog style. The default is a no-op logger so the
// library stays silent unless the caller opts in.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SimpleLogger writes leveled lines to stderr via the standard log package.
// Useful for examples and quick debugging.
type SimpleLogger struct {
	l *log.Logger
}

// NewSimpleLogger creates a console logger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{l: log.New(os.Stderr, "sfstream ", log.LstdFlags|log.Lmsgprefix)}
}

func (s *SimpleLogger) print(level, msg string, kv []any) {
	args := make([]any, 0, 2+len(kv))
	args = append(args, level, msg)
	args = append(args, kv...)
	s.l.Println(args...)
}

// Debug logs at debug level.
func (s *SimpleLogger) Debug(msg string, keysAndValues ...any) {
	s.print("DEBUG", msg, keysAndValues)
}

// Info logs at info level.
func (s *SimpleLogger) Info(msg string, keysAndValues ...any) {
	s.print("INFO", msg, keysAndValues)
}

// Warn logs at warn level.
func (s *SimpleLogger) Warn(msg string, keysAndValues ...any) {
	s.print("WARN", msg, keysAndValues)
}

// Error logs at error level.
func (s *SimpleLogger) Error(msg string, keysAndValues ...any) {
	s.print("ERROR", msg, keysAndValues)
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts a *slog.Logger to the Logger interface.
func NewSlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, keysAndValues ...any) {
	s.l.Debug(msg, keysAndValues...)
}

func (s *slogLogger) Info(msg string, keysAndValues ...any) {
	s.l.Info(msg, keysAndValues...)
}

func (s *slogLogger) Warn(msg string, keysAndValues ...any) {
	s.l.Warn(msg, keysAndValues...)
}

func (s *slogLogger) Error(msg string, keysAndValues ...any) {
	s.l.Error(msg, keysAndValues...)
}
