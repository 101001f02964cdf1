package proxy_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wesline/internal/logging"
	"wesline/internal/proxy"
	"wesline/internal/services"
	"wesline/internal/testsupport"
)

func TestProxyStripsPrefixAndForwards(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotForwarded string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotForwarded = r.Header.Get("X-Forwarded-For")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "https://upstream.example")
		_, _ = w.Write([]byte(`{"patterns":[]}`))
	}))
	defer upstream.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(upstream.URL, ""))
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/patterns?limit=3", nil)
	req.Header.Set("Authorization", "Bearer upstream-token")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if gotPath != "/patterns" {
		t.Fatalf("upstream path = %q, want /patterns", gotPath)
	}
	if gotQuery != "limit=3" {
		t.Fatalf("upstream query = %q", gotQuery)
	}
	if gotAuth != "Bearer upstream-token" {
		t.Fatalf("authorization not forwarded: %q", gotAuth)
	}
	if gotForwarded == "" {
		t.Fatal("expected X-Forwarded-For to be set")
	}
	if got := rec.Header().Get(proxy.UpstreamHeader); got != "api" {
		t.Fatalf("%s = %q, want api", proxy.UpstreamHeader, got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("upstream CORS header leaked: %q", got)
	}
	if rec.Body.String() != `{"patterns":[]}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestProxyFailoverReplaysBody(t *testing.T) {
	var apiCalls atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer api.Close()

	var workerBody string
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		workerBody = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer worker.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(api.URL, worker.URL))
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if targets := p.Targets(); len(targets) != 2 || targets[0].Name != "api" || targets[1].Name != "worker" {
		t.Fatalf("unexpected targets %+v", targets)
	}

	payload := `{"chord":"G7"}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate-line", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if apiCalls.Load() != 1 {
		t.Fatalf("api calls = %d, want 1", apiCalls.Load())
	}
	if workerBody != payload {
		t.Fatalf("worker body = %q, want %q", workerBody, payload)
	}
	if got := rec.Header().Get(proxy.UpstreamHeader); got != "worker" {
		t.Fatalf("%s = %q, want worker", proxy.UpstreamHeader, got)
	}
}

func TestProxyDoesNotFailoverOnClientError(t *testing.T) {
	var workerCalls atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad chord"}`, http.StatusBadRequest)
	}))
	defer api.Close()
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workerCalls.Add(1)
	}))
	defer worker.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(api.URL, worker.URL))
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate-line", strings.NewReader("{}")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if workerCalls.Load() != 0 {
		t.Fatalf("worker should not be called on 4xx")
	}
}

func TestProxyLastTargetServerErrorPassesThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer upstream.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(upstream.URL, ""))
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Body.String() != "maintenance" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestProxyAllUpstreamsDownReturnsBadGateway(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(deadURL, deadURL))
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patterns", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if !strings.HasPrefix(payload["error"], "upstream unavailable") {
		t.Fatalf("unexpected error %q", payload["error"])
	}
}

func TestProxyRejectsOversizedBufferedBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be called")
	}))
	defer upstream.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(upstream.URL, upstream.URL))
	cfg.Upstream.MaxBodyBytes = 8
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate-line", strings.NewReader(`{"chord":"Cmaj7"}`)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestProxyRejectsOversizedStreamedBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
	}))
	defer upstream.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(upstream.URL, ""))
	cfg.Upstream.MaxBodyBytes = 16
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := httptest.NewRecorder()
	body := strings.NewReader(strings.Repeat("x", 4096))
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate-line", body))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "request body exceeds 16 bytes") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestProxyMapsUpstreamTimeoutToGatewayTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer upstream.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(upstream.URL, ""))
	cfg.Upstream.TimeoutSeconds = 1
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patterns", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
}

func TestProxyPropagatesRequestID(t *testing.T) {
	var gotID string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(proxy.RequestIDHeader)
		w.Header().Set(proxy.RequestIDHeader, "upstream-id")
	}))
	defer upstream.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams(upstream.URL, ""))
	p, err := proxy.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	handler := proxy.Chain(p, proxy.RequestID)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(proxy.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotID != "req-123" {
		t.Fatalf("upstream saw request id %q, want req-123", gotID)
	}
	if got := rec.Header().Get(proxy.RequestIDHeader); got != "req-123" {
		t.Fatalf("response request id = %q, want req-123", got)
	}
}

func TestNewRequiresUpstream(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithUpstreams("", ""))
	if _, err := proxy.New(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected configuration error")
	} else if services.HTTPStatus(err) != http.StatusServiceUnavailable {
		t.Fatalf("unexpected error classification: %v", err)
	}
}
