package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"wesline/internal/api"
)

// ErrDaemonNotRunning indicates nothing answered on the configured bind address.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Client calls the control endpoints of a running daemon.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithoutTimeout drops the per-request timeout, for long-polling callers
// that bound requests with their own context.
func WithoutTimeout() ClientOption {
	return func(c *Client) { c.http.Timeout = 0 }
}

// NewClient builds a client for bind, which may be host:port or a full URL.
// A wildcard listen host is dialed on loopback.
func NewClient(bind, token string, opts ...ClientOption) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("bind address is required")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse bind address: %w", err)
	}
	if host, port, splitErr := net.SplitHostPort(base.Host); splitErr == nil {
		if host == "" || host == "0.0.0.0" || host == "::" {
			base.Host = net.JoinHostPort("127.0.0.1", port)
		}
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	c := &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the daemon root URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Health reports whether the daemon answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.GetJSON(ctx, "/healthz", nil, &out)
}

// Status fetches the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var out api.StatusResponse
	if err := c.GetJSON(ctx, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitReady polls /healthz until it answers or timeout elapses.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = c.Health(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("daemon not ready: %w", lastErr)
		case <-ticker.C:
		}
	}
}

// GetJSON issues an authenticated GET for path and decodes the JSON body
// into out. Error statuses surface the server's {"error": ...} message.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if IsUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
		}
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsUnavailable reports whether err means no daemon is listening.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDaemonNotRunning) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
