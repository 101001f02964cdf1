package logging

import (
	"context"
	"errors"
	"log/slog"
)

// multiHandler sends each record to every member that accepts its level.
type multiHandler struct {
	members []slog.Handler
}

func combine(handlers ...slog.Handler) slog.Handler {
	var members []slog.Handler
	for _, h := range handlers {
		if h != nil {
			members = append(members, h)
		}
	}
	switch len(members) {
	case 0:
		return discardHandler{}
	case 1:
		return members[0]
	}
	return &multiHandler{members: members}
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.members {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range m.members {
		if h.Enabled(ctx, record.Level) {
			errs = append(errs, h.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	return m.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *multiHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := &multiHandler{members: make([]slog.Handler, len(m.members))}
	for i, h := range m.members {
		next.members[i] = fn(h)
	}
	return next
}
