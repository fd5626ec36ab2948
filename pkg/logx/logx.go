package logx

import (
	"log/slog"
	"os"
)

// Logger is a thin wrapper over slog that tags every record with the
// component that produced it.
type Logger struct {
	inner *slog.Logger
}

// Init installs the process-wide handler. Text output for local runs,
// JSON when LOG_FORMAT=json (what we ship to the collector).
func Init(level slog.Level) {
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, options)
	} else {
		handler = slog.NewTextHandler(os.Stdout, options)
	}
	slog.SetDefault(slog.New(handler))
}

func New(component string) *Logger {
	return &Logger{inner: slog.Default().With("component", component)}
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.inner.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.inner.Error(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.inner.Debug(msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}
