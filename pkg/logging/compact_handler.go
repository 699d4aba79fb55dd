package logging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CompactHandler writes one human-readable line per record:
//
//	[LEVEL] HH:MM:SS message | key=value key=value
//
// Build and request IDs are cut to 8 characters, durationMs is rendered with
// a unit and errors are always quoted.
type CompactHandler struct {
	level slog.Leveler
	mu    *sync.Mutex // shared by handlers derived via WithAttrs/WithGroup
	out   io.Writer
	attrs []slog.Attr
	group string
}

// NewCompactHandler creates a new compact console handler
func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &CompactHandler{level: level, mu: &sync.Mutex{}, out: w}
}

func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// levelLabels are padded so messages line up
var levelLabels = map[slog.Level]string{
	LevelTrace:      "[TRACE] ",
	slog.LevelDebug: "[DEBUG] ",
	slog.LevelInfo:  "[INFO]  ",
	slog.LevelWarn:  "[WARN]  ",
	slog.LevelError: "[ERROR] ",
}

func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.Grow(256)

	if label, ok := levelLabels[r.Level]; ok {
		b.WriteString(label)
	} else {
		b.WriteString("[" + r.Level.String() + "] ")
	}
	b.WriteString(r.Time.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	sep := " | "
	write := func(a slog.Attr) bool {
		if a.Equal(slog.Attr{}) {
			return true
		}
		b.WriteString(sep)
		sep = " "
		h.writeAttr(&b, a)
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *CompactHandler) writeAttr(b *strings.Builder, a slog.Attr) {
	v := a.Value.Resolve()

	switch a.Key {
	case "buildID", "requestID":
		if v.Kind() == slog.KindString {
			name := "build="
			if a.Key == "requestID" {
				name = "req="
			}
			b.WriteString(name + shortID(v.String()))
			return
		}
	case "durationMs":
		b.WriteString("duration=" + v.String() + "ms")
		return
	case "error":
		b.WriteString("error=" + strconv.Quote(v.String()))
		return
	}

	if h.group != "" {
		b.WriteString(h.group + ".")
	}
	b.WriteString(a.Key)
	b.WriteByte('=')

	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if needsQuoting(s) {
			s = strconv.Quote(s)
		}
		b.WriteString(s)
	case slog.KindTime:
		b.WriteString(v.Time().Format(time.RFC3339))
	default:
		// Int64, Uint64, Float64, Bool and Duration all print sensibly
		b.WriteString(v.String())
	}
}

// shortID keeps the first 8 characters of a UUID
func shortID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func needsQuoting(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\n\"=")
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append(make([]slog.Attr, 0, len(h.attrs)+len(attrs)), h.attrs...), attrs...)
	return &clone
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.group = name
	return &clone
}
