package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wesline/internal/config"
	"wesline/internal/logging"
	"wesline/internal/services"
)

// UpstreamHeader names the upstream that produced a proxied response.
const UpstreamHeader = "X-Wesline-Upstream"

// RequestIDHeader carries the correlation identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// hopHeaders are connection-scoped and never forwarded (RFC 9110 section 7.6.1).
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Target is one upstream the proxy can forward to.
type Target struct {
	Name string
	URL  *url.URL
}

// Proxy forwards /api/<rest> to <upstream>/<rest>. In failover mode the body
// is buffered so the request can be replayed against the next target.
type Proxy struct {
	targets  []Target
	prefix   string
	failover bool
	maxBody  int64
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// Option customizes the proxy.
type Option func(*Proxy)

// WithTransport overrides the round tripper used for upstream calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) {
		if rt != nil {
			p.client.Transport = rt
		}
	}
}

// New builds a proxy for the configured upstream mode.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Proxy, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "proxy", "configure", "config is required", nil)
	}
	targets, err := targetsFor(cfg)
	if err != nil {
		return nil, err
	}
	p := &Proxy{
		targets:  targets,
		prefix:   cfg.Upstream.Prefix,
		failover: len(targets) > 1,
		maxBody:  cfg.Upstream.MaxBodyBytes,
		timeout:  cfg.UpstreamTimeout(),
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logging.NewComponentLogger(logger, "proxy"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func targetsFor(cfg *config.Config) ([]Target, error) {
	type entry struct{ name, raw string }
	var entries []entry
	switch cfg.Upstream.Mode {
	case config.ModeAPI:
		entries = []entry{{"api", cfg.Upstream.WesAPIURL}}
	case config.ModeWorker:
		entries = []entry{{"worker", cfg.Upstream.WorkerURL}}
	default:
		entries = []entry{{"api", cfg.Upstream.WesAPIURL}, {"worker", cfg.Upstream.WorkerURL}}
	}
	var targets []Target
	for _, e := range entries {
		if strings.TrimSpace(e.raw) == "" {
			continue
		}
		parsed, err := url.Parse(e.raw)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "proxy", "configure", e.name+" url", err)
		}
		targets = append(targets, Target{Name: e.name, URL: parsed})
	}
	if len(targets) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "proxy", "configure", "no upstream url configured", nil)
	}
	return targets, nil
}

// Targets returns the upstreams in the order they are tried.
func (p *Proxy) Targets() []Target {
	return append([]Target(nil), p.targets...)
}

// Prefix returns the path prefix the proxy is mounted under.
func (p *Proxy) Prefix() string { return p.prefix }

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), p.logger)

	rest := strings.TrimPrefix(r.URL.Path, p.prefix)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}

	var body []byte
	if p.failover && r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(io.LimitReader(r.Body, p.maxBody+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
			return
		}
		if int64(len(data)) > p.maxBody {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", p.maxBody))
			return
		}
		body = data
	} else if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, p.maxBody)
	}

	var lastErr error
	for i, target := range p.targets {
		last := i == len(p.targets)-1
		done, err := p.forward(w, r, target, rest, body, last)
		if done {
			return
		}
		lastErr = err
		if r.Context().Err() != nil {
			return
		}
		if !last {
			logger.Warn("upstream failed; trying next",
				logging.String(logging.FieldUpstream, target.Name),
				logging.Path(rest),
				logging.Error(err),
			)
		}
	}

	var maxErr *http.MaxBytesError
	if errors.As(lastErr, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		return
	}
	status := http.StatusBadGateway
	if isTimeout(lastErr) {
		status = http.StatusGatewayTimeout
	}
	logger.Error("proxy request failed",
		logging.Path(rest),
		logging.Status(status),
		logging.Error(lastErr),
	)
	writeError(w, status, "upstream unavailable: "+errorText(lastErr))
}

// forward sends one attempt. It reports done once a response has been
// written to w; otherwise the caller may try the next target.
func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, target Target, rest string, body []byte, last bool) (bool, error) {
	ctx := r.Context()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out, err := p.outboundRequest(ctx, r, target, rest, body)
	if err != nil {
		return false, err
	}
	resp, err := p.client.Do(out)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError && !last {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return false, fmt.Errorf("%s returned http %d", target.Name, resp.StatusCode)
	}

	header := w.Header()
	copyHeaders(header, resp.Header, func(key string) bool {
		key = http.CanonicalHeaderKey(key)
		return strings.HasPrefix(key, "Access-Control-") || key == RequestIDHeader
	})
	header.Set(UpstreamHeader, target.Name)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(flushWriter{w}, resp.Body); err != nil {
		p.logger.Debug("copy upstream body interrupted", logging.Error(err))
	}
	return true, nil
}

func (p *Proxy) outboundRequest(ctx context.Context, r *http.Request, target Target, rest string, body []byte) (*http.Request, error) {
	dest := *target.URL
	dest.Path = singleJoin(target.URL.Path, rest)
	dest.RawPath = ""
	dest.RawQuery = r.URL.RawQuery

	var reader io.Reader = r.Body
	if body != nil {
		reader = bytes.NewReader(body)
	}
	if r.Body == nil || r.Body == http.NoBody {
		reader = nil
	}
	out, err := http.NewRequestWithContext(ctx, r.Method, dest.String(), reader)
	if err != nil {
		return nil, err
	}
	copyHeaders(out.Header, r.Header, nil)
	if body != nil {
		out.ContentLength = int64(len(body))
	} else {
		out.ContentLength = r.ContentLength
	}

	if clientIP, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if prior := r.Header.Get("X-Forwarded-For"); prior != "" {
			clientIP = prior + ", " + clientIP
		}
		out.Header.Set("X-Forwarded-For", clientIP)
	}
	out.Header.Set("X-Forwarded-Host", r.Host)
	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	out.Header.Set("X-Forwarded-Proto", proto)
	if id, ok := services.RequestIDFromContext(r.Context()); ok {
		out.Header.Set(RequestIDHeader, id)
	}
	return out, nil
}

// copyHeaders copies src into dst without hop-by-hop headers, the headers
// named in Connection, or any header skip reports.
func copyHeaders(dst, src http.Header, skip func(string) bool) {
	dropped := map[string]struct{}{}
	for _, h := range hopHeaders {
		dropped[h] = struct{}{}
	}
	for _, v := range src.Values("Connection") {
		for _, field := range strings.Split(v, ",") {
			if field = strings.TrimSpace(field); field != "" {
				dropped[http.CanonicalHeaderKey(field)] = struct{}{}
			}
		}
	}
	for key, values := range src {
		if _, ok := dropped[http.CanonicalHeaderKey(key)]; ok {
			continue
		}
		if skip != nil && skip(key) {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func singleJoin(base, rest string) string {
	switch {
	case base == "" || base == "/":
		return rest
	case strings.HasSuffix(base, "/") && strings.HasPrefix(rest, "/"):
		return base + rest[1:]
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(rest, "/"):
		return base + "/" + rest
	default:
		return base + rest
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func errorText(err error) string {
	if err == nil {
		return "no upstream answered"
	}
	return err.Error()
}

type flushWriter struct {
	w http.ResponseWriter
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if flusher, ok := f.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
