package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler prints one human-readable line per record:
//
//	2026-01-02T15:04:05Z INFO proxy: [3f2a9c1e] forwarded status=200
type consoleHandler struct {
	out        *lockedWriter
	level      slog.Leveler
	withSource bool
	attrs      []slog.Attr
	groups     []string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var component, requestID string
	var rest []field
	for _, f := range collectFields(h.attrs, h.groups, record) {
		switch {
		case f.key == FieldComponent && component == "":
			component = valueText(f.value)
		case f.key == FieldRequestID && requestID == "":
			requestID = valueText(f.value)
		case f.key == FieldComponent, f.key == FieldRequestID:
		default:
			rest = append(rest, f)
		}
	}

	var b strings.Builder
	b.Grow(96 + 24*len(rest))
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteString(" " + consoleLevel(record.Level) + " ")
	if component != "" {
		b.WriteString(component + ": ")
	}
	if requestID != "" {
		b.WriteString("[" + shortRequestID(requestID) + "] ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	if h.withSource {
		if src := record.Source(); src != nil && src.File != "" {
			b.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	for _, f := range rest {
		b.WriteString(" " + f.key + "=" + consoleValue(f.value))
	}
	b.WriteByte('\n')
	return h.out.write([]byte(b.String()))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), qualify(h.groups, attrs)...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// qualify nests attrs under the open groups so they flatten to the same
// dotted keys as record attrs.
func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		attr.Key = strings.Join(groups, ".") + "." + attr.Key
		out[i] = attr
	}
	return out
}

// shortRequestID trims generated UUIDs to their first block; the JSON file
// keeps the full value.
func shortRequestID(id string) string {
	if len(id) == 36 && id[8] == '-' {
		return id[:8]
	}
	return id
}

func consoleLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
