package qlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger wraps slog.Logger with convenience methods
type Logger struct {
	*slog.Logger
}

// simpleHandler formats logs in a clean, CLI-friendly way
type simpleHandler struct {
	level  slog.Leveler
	output io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	group  string
}

func (h *simpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *simpleHandler) Handle(_ context.Context, r slog.Record) error {
	// Format: [LEVEL] message key=value key=value
	var b strings.Builder

	switch {
	case r.Level >= slog.LevelError:
		b.WriteString("❌ ")
	case r.Level >= slog.LevelWarn:
		b.WriteString("⚠️  ")
	case r.Level >= slog.LevelInfo:
		b.WriteString("ℹ️  ")
	default:
		b.WriteString("🔍 ")
	}

	b.WriteString(r.Message)

	first := true
	write := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			return
		}
		if first {
			b.WriteString(" ")
			first = false
		} else {
			b.WriteString(", ")
		}
		if h.group != "" {
			b.WriteString(h.group)
			b.WriteString(".")
		}
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(a.Value.String())
	}

	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})

	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.output, b.String())
	return err
}

func (h *simpleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *simpleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group = clone.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}

// NewLogger creates a new logger with the specified level and output
func NewLogger(level slog.Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	handler := &simpleHandler{
		level:  level,
		output: output,
		mu:     &sync.Mutex{},
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewDefault creates a logger with INFO level
func NewDefault() *Logger {
	return NewLogger(slog.LevelInfo, os.Stdout)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return NewLogger(slog.LevelError+4, io.Discard)
}

// ParseLevel maps a LOG_LEVEL string onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// With returns a Logger that includes the given attributes in each output.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Fatal logs at ERROR level and exits with code 1
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
