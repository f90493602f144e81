// Package observability builds the structured logger and carries request
// scoped identifiers through context.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat specifies the output format for logs.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogConfig configures the logger.
type LogConfig struct {
	Level       string
	Format      LogFormat
	Output      io.Writer
	AddSource   bool
	ServiceName string
}

// NewLogger creates a slog logger that stamps every record with the service
// name and any correlation/request IDs found in the context.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == LogFormatJSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	if cfg.ServiceName != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.ServiceName)})
	}

	return slog.New(&contextHandler{handler: handler})
}

// ParseLevel maps a config string to a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextHandler struct {
	handler slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name)}
}
