package logging

import (
	"context"
	"log/slog"

	"wesline/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for request correlation identifiers.
	FieldRequestID = "request_id"
	// FieldRoute is the standardized structured logging key for the HTTP route.
	FieldRoute = "route"
	// FieldUpstream names the upstream (api or worker) that handled a request.
	FieldUpstream = "upstream"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	if route, ok := services.RouteFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRoute, route))
	}
	if upstream, ok := services.UpstreamFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUpstream, upstream))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
