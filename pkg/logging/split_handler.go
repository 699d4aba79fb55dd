package logging

import (
	"context"
	"log/slog"
)

// splitHandler routes ERROR records to one handler and the rest to another
type splitHandler struct {
	std slog.Handler
	err slog.Handler
}

func newSplitHandler(std, err slog.Handler) *splitHandler {
	return &splitHandler{std: std, err: err}
}

func (h *splitHandler) pick(level slog.Level) slog.Handler {
	if level >= slog.LevelError {
		return h.err
	}
	return h.std
}

func (h *splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.pick(level).Enabled(ctx, level)
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.pick(r.Level).Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{std: h.std.WithAttrs(attrs), err: h.err.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{std: h.std.WithGroup(name), err: h.err.WithGroup(name)}
}
