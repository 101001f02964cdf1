package services_test

import (
	"context"
	"testing"

	"wesline/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithRoute(ctx, "lines.generate")
	ctx = services.WithUpstream(ctx, "worker")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if route, ok := services.RouteFromContext(ctx); !ok || route != "lines.generate" {
		t.Fatalf("unexpected route: %v %v", route, ok)
	}
	if upstream, ok := services.UpstreamFromContext(ctx); !ok || upstream != "worker" {
		t.Fatalf("unexpected upstream: %v %v", upstream, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRoute(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.RouteFromContext(ctx); ok {
		t.Fatal("expected no route value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
}
