package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	routeKey     contextKey = "route"
	upstreamKey  contextKey = "upstream"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRoute annotates context with the HTTP route serving the request.
func WithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey, route)
}

// RouteFromContext returns the route name if present.
func RouteFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(routeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUpstream annotates context with the upstream (api or worker) handling the request.
func WithUpstream(ctx context.Context, upstream string) context.Context {
	if upstream == "" {
		return ctx
	}
	return context.WithValue(ctx, upstreamKey, upstream)
}

// UpstreamFromContext returns the upstream name if present.
func UpstreamFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(upstreamKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
