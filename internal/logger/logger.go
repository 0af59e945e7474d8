package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging interface used across embedprep. Components take it
// from the context so tests and servers can swap the sink.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// Format selects the record encoding.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatText   Format = "text"
)

// ParseFormat accepts pretty, json and text in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatJSON, FormatText:
		return f, nil
	case "":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want pretty, json or text)", s)
	}
}

// Options configure Setup.
type Options struct {
	Level  slog.Level
	Format Format
	// Source adds file:line to every record.
	Source bool
	// NoColor disables ANSI colors in the pretty format.
	NoColor bool
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	logger *slog.Logger
}

func New(handler slog.Handler) Logger {
	return &SlogLogger{logger: slog.New(handler)}
}

// Setup builds a Logger writing to w according to opts.
func Setup(w io.Writer, opts Options) Logger {
	hopts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.Source}
	switch opts.Format {
	case FormatJSON:
		return New(slog.NewJSONHandler(w, hopts))
	case FormatText:
		return New(slog.NewTextHandler(w, hopts))
	default:
		h := NewPrettyHandler(w, hopts)
		h.NoColor = opts.NoColor
		return New(h)
	}
}

// Default writes text records at info level to stderr.
func Default() Logger {
	return Setup(os.Stderr, Options{Level: slog.LevelInfo, Format: FormatText})
}

func JSON(w io.Writer, level slog.Level) Logger {
	return Setup(w, Options{Level: level, Format: FormatJSON})
}

func Pretty(w io.Writer, level slog.Level) Logger {
	return Setup(w, Options{Level: level, Format: FormatPretty})
}

// Discard drops every record.
func Discard() Logger {
	return New(slog.DiscardHandler)
}

// Slog returns the underlying slog logger, or the process default when l is
// not backed by slog.
func Slog(l Logger) *slog.Logger {
	if sl, ok := l.(*SlogLogger); ok {
		return sl.logger
	}
	return slog.Default()
}

type loggerKey struct{}

// FromContext returns the context logger, or Default when none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Default()
}

func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

func (l *SlogLogger) WithGroup(name string) Logger {
	return &SlogLogger{logger: l.logger.WithGroup(name)}
}

// ParseLevel converts debug, info, warn/warning and error (any case) to a
// slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
