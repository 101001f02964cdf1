package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr is a slog attribute; the helpers below keep call sites free of
// direct slog imports.
type Attr = slog.Attr

// Keys shared by the HTTP middlewares and handlers so access logs and error
// logs line up when filtered.
const (
	FieldStatus  = "status"
	FieldPath    = "path"
	FieldElapsed = "elapsed_ms"
)

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Status records an HTTP status code.
func Status(code int) Attr { return slog.Int(FieldStatus, code) }

// Path records a request path.
func Path(value string) Attr { return slog.String(FieldPath, value) }

// Elapsed records a duration as whole milliseconds, which sorts and greps
// better in the console than Go duration strings.
func Elapsed(d time.Duration) Attr { return slog.Int64(FieldElapsed, d.Milliseconds()) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attributes into the variadic form slog.Logger methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger { return slog.New(discardHandler{}) }

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
