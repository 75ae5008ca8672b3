// Package logging builds the process logger. Console output splits by
// severity: errors go to stderr, everything else to stdout. A log file, when
// given, receives every record at the configured level.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below debug and covers per-pointer and per-frame output.
const LevelTrace slog.Level = -8

// ParseLevel maps a level name to its slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Options select where and how logs are written.
type Options struct {
	Level string
	File  string
	JSON  bool

	// Stdout and Stderr override the console streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Setup creates the logger. The returned closer releases the log file.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	newHandler := func(w io.Writer, min slog.Level) slog.Handler {
		ho := &slog.HandlerOptions{Level: min, ReplaceAttr: levelName}
		if opts.JSON {
			return slog.NewJSONHandler(w, ho)
		}
		return slog.NewTextHandler(w, ho)
	}

	handlers := fanout{
		only(newHandler(stdout, level), func(l slog.Level) bool { return l < slog.LevelError }),
		only(newHandler(stderr, slog.LevelError), func(l slog.Level) bool { return l >= slog.LevelError }),
	}
	closer := io.Closer(nopCloser{})
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, newHandler(f, level))
		closer = f
	}
	return slog.New(handlers), closer, nil
}

// levelName prints the custom trace level by name instead of DEBUG-4.
func levelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok && l <= LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout sends each record to every handler that accepts it.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// filtered passes through only the levels keep accepts.
type filtered struct {
	keep func(slog.Level) bool
	h    slog.Handler
}

func only(h slog.Handler, keep func(slog.Level) bool) slog.Handler {
	return filtered{keep: keep, h: h}
}

func (f filtered) Enabled(ctx context.Context, level slog.Level) bool {
	return f.keep(level) && f.h.Enabled(ctx, level)
}

func (f filtered) Handle(ctx context.Context, r slog.Record) error {
	if !f.keep(r.Level) {
		return nil
	}
	return f.h.Handle(ctx, r)
}

func (f filtered) WithAttrs(attrs []slog.Attr) slog.Handler {
	return filtered{keep: f.keep, h: f.h.WithAttrs(attrs)}
}

func (f filtered) WithGroup(name string) slog.Handler {
	return filtered{keep: f.keep, h: f.h.WithGroup(name)}
}
