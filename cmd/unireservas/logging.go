package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

var (
	logger       = slog.New(slog.DiscardHandler)
	fluentClient *fluent.Fluent
)

// setupLogging builds the CLI logger: coloured console output on stderr and,
// when UNIRESERVAS_FLUENT_HOST is set, a copy of every record forwarded to
// Fluent Bit.
func setupLogging() error {
	level := parseLogLevel(os.Getenv("UNIRESERVAS_LOG_LEVEL"))
	if verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	})}

	if host := os.Getenv("UNIRESERVAS_FLUENT_HOST"); host != "" {
		port := 24224
		if p := os.Getenv("UNIRESERVAS_FLUENT_PORT"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("invalid UNIRESERVAS_FLUENT_PORT %q: %w", p, err)
			}
			port = n
		}
		client, err := fluent.New(fluent.Config{
			FluentHost: host,
			FluentPort: port,
			TagPrefix:  "unireservas",
			Async:      true,
		})
		if err != nil {
			return fmt.Errorf("failed to create fluent client: %w", err)
		}
		fluentClient = client
		handlers = append(handlers, newFluentHandler(client, level))
	}

	logger = slog.New(multiHandler(handlers))
	return nil
}

func closeLogging() {
	if fluentClient != nil {
		_ = fluentClient.Close()
		fluentClient = nil
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// ============================================================================
// Fluent handler
// ============================================================================

type fluentPoster interface {
	Post(tag string, message interface{}) error
}

// fluentHandler posts each record as a flat map tagged with its level.
type fluentHandler struct {
	client   fluentPoster
	minLevel slog.Level
	attrs    []slog.Attr
	group    string
}

func newFluentHandler(client fluentPoster, minLevel slog.Level) *fluentHandler {
	return &fluentHandler{client: client, minLevel: minLevel}
}

func (h *fluentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel
}

func (h *fluentHandler) Handle(_ context.Context, r slog.Record) error {
	data := make(map[string]any, len(h.attrs)+r.NumAttrs()+3)
	for _, a := range h.attrs {
		data[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		if err, ok := a.Value.Any().(error); ok {
			data[key] = err.Error()
		} else {
			data[key] = a.Value.Any()
		}
		return true
	})
	level := strings.ToLower(r.Level.String())
	data["level"] = level
	data["message"] = r.Message
	data["timestamp"] = r.Time.UTC().Format(time.RFC3339Nano)
	return h.client.Post(level, data)
}

func (h *fluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		out.attrs = append(out.attrs, a)
	}
	return &out
}

func (h *fluentHandler) WithGroup(name string) slog.Handler {
	out := *h
	if out.group != "" {
		name = out.group + "." + name
	}
	out.group = name
	return &out
}

// ============================================================================
// Fan-out
// ============================================================================

// multiHandler sends each record to every handler that accepts its level.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
