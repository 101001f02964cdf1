package wesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wesline/internal/services"
)

const (
	component             = "wesapi"
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 5 * time.Second
	defaultRetryAttempts  = 2
	maxErrorBody          = 4 << 10
)

// HTTPDoer describes the HTTP client used to reach the Wes API.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config captures the settings for one upstream.
type Config struct {
	Name           string
	BaseURL        string
	UserAgent      string
	TimeoutSeconds int
}

// Client talks to a single Wes API deployment.
type Client struct {
	cfg    Config
	client HTTPDoer

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithRetryMaxAttempts overrides the attempt count (defaults to 2).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client for one upstream.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Name:           strings.TrimSpace(cfg.Name),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			UserAgent:      strings.TrimSpace(cfg.UserAgent),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		client:           &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.Name == "" {
		client.cfg.Name = UpstreamAPI
	}
	return client
}

// Name identifies the upstream ("api" or "worker").
func (c *Client) Name() string { return c.cfg.Name }

// BaseURL returns the upstream root URL.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// GenerateLine requests a bebop line.
func (c *Client) GenerateLine(ctx context.Context, req LineRequest) (*LineResponse, error) {
	if strings.TrimSpace(req.Chord) == "" {
		return nil, services.Wrap(services.ErrValidation, component, "generate line", "chord is required", nil)
	}
	var resp LineResponse
	if err := c.call(ctx, "generate line", http.MethodPost, "/generate-line", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Notes) == 0 {
		return nil, services.Wrap(services.ErrUpstream, component, "generate line", c.cfg.Name+" returned no notes", nil)
	}
	resp.Upstream = c.cfg.Name
	return &resp, nil
}

// ValidateCounterpoint asks the upstream to check a counterpoint exercise.
func (c *Client) ValidateCounterpoint(ctx context.Context, req CounterpointRequest) (*CounterpointResult, error) {
	if len(req.CantusFirmus) == 0 || len(req.Counterpoint) == 0 {
		return nil, services.Wrap(services.ErrValidation, component, "validate counterpoint", "cantus_firmus and counterpoint are required", nil)
	}
	var resp CounterpointResult
	if err := c.call(ctx, "validate counterpoint", http.MethodPost, "/counterpoint/validate", req, &resp); err != nil {
		return nil, err
	}
	resp.Upstream = c.cfg.Name
	return &resp, nil
}

// Patterns lists the patterns the upstream can build lines from.
func (c *Client) Patterns(ctx context.Context) ([]Pattern, error) {
	var wrapped struct {
		Patterns []Pattern `json:"patterns"`
	}
	if err := c.call(ctx, "list patterns", http.MethodGet, "/patterns", nil, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Patterns, nil
}

// Health checks that the upstream answers GET /health with a 2xx.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, "health", http.MethodGet, "/health", nil, nil)
}

func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	if c.cfg.BaseURL == "" {
		return services.Wrap(services.ErrConfiguration, component, op, c.cfg.Name+" url not configured", nil)
	}
	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.callOnce(ctx, op, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return classify(op, c.cfg.Name, err)
		}
	}
	return classify(op, c.cfg.Name, lastErr)
}

func (c *Client) callOnce(ctx context.Context, op, method, path string, body, out any) error {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &StatusError{
			Upstream:   c.cfg.Name,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			RetryAfter: retryAfter,
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx answer from an upstream.
type StatusError struct {
	Upstream   string
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned http %d", e.Upstream, e.StatusCode)
	}
	return fmt.Sprintf("%s returned http %d: %s", e.Upstream, e.StatusCode, e.Message)
}

// Server reports a 5xx answer.
func (e *StatusError) Server() bool { return e.StatusCode >= http.StatusInternalServerError }

type transportError struct {
	err error
}

func (e *transportError) Error() string { return "transport: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func errorMessage(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

// classify tags a raw client error with the service marker that decides the
// HTTP status returned to callers.
func classify(op, upstream string, err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return services.Wrap(services.ErrTimeout, component, op, upstream+" timed out", err)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout || statusErr.StatusCode == http.StatusGatewayTimeout:
			return services.Wrap(services.ErrTimeout, component, op, "", err)
		case statusErr.StatusCode == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, component, op, "", err)
		case statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 && statusErr.StatusCode != http.StatusTooManyRequests:
			return services.Wrap(services.ErrValidation, component, op, "", err)
		}
		return services.Wrap(services.ErrUpstream, component, op, "", err)
	}
	if errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrTransient, component, op, "request canceled", err)
	}
	return services.Wrap(services.ErrUpstream, component, op, upstream+" unavailable", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

// retryDelay retries rate limiting, 502/503/504 answers, and network timeouts.
// Other failures return at once so failover can move to the next upstream.
func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > c.maxDelay()/2 {
			delay = c.maxDelay()
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) maxDelay() time.Duration {
	if c.retryMaxDelay > 0 {
		return c.retryMaxDelay
	}
	return defaultRetryMaxDelay
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if limit := c.maxDelay(); delay > limit {
		return limit
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
