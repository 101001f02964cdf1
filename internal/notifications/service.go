package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wesline/internal/config"
)

const userAgent = "wesline-notify/1"

// Service defines the alerts the daemon and CLI can send.
type Service interface {
	NotifyDaemonStarted(ctx context.Context, version, address string) error
	NotifyDaemonStopped(ctx context.Context, uptime time.Duration) error
	NotifyUpstreamDown(ctx context.Context, upstream, url string, err error) error
	NotifyUpstreamRecovered(ctx context.Context, upstream, url string, downtime time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		lifecycle: cfg.Notifications.DaemonLifecycle,
	}
}

// Enabled reports whether svc actually sends anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	lifecycle bool
}

func (n *ntfyService) NotifyDaemonStarted(ctx context.Context, version, address string) error {
	if !n.lifecycle {
		return nil
	}
	version = strings.TrimSpace(version)
	if version == "" {
		version = "dev"
	}
	return n.send(ctx, payload{
		title:   "wesline - Started",
		message: fmt.Sprintf("wesline %s listening on %s", version, strings.TrimSpace(address)),
		tags:    []string{"wesline", "daemon", "started"},
	})
}

func (n *ntfyService) NotifyDaemonStopped(ctx context.Context, uptime time.Duration) error {
	if !n.lifecycle {
		return nil
	}
	return n.send(ctx, payload{
		title:    "wesline - Stopped",
		message:  fmt.Sprintf("wesline stopped after %s", formatDuration(uptime)),
		tags:     []string{"wesline", "daemon", "stopped"},
		priority: "low",
	})
}

func (n *ntfyService) NotifyUpstreamDown(ctx context.Context, upstream, url string, err error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is unreachable", upstreamLabel(upstream))
	if url = strings.TrimSpace(url); url != "" {
		fmt.Fprintf(&b, " at %s", url)
	}
	if err != nil {
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(err.Error()))
	}
	return n.send(ctx, payload{
		title:    "wesline - Upstream Down",
		message:  b.String(),
		tags:     []string{"wesline", "upstream", "down"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyUpstreamRecovered(ctx context.Context, upstream, url string, downtime time.Duration) error {
	message := fmt.Sprintf("%s is reachable again", upstreamLabel(upstream))
	if url = strings.TrimSpace(url); url != "" {
		message += " at " + url
	}
	if downtime > 0 {
		message += fmt.Sprintf(" (down %s)", formatDuration(downtime))
	}
	return n.send(ctx, payload{
		title:   "wesline - Upstream Recovered",
		message: message,
		tags:    []string{"wesline", "upstream", "recovered"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "wesline - Test",
		message:  "Notification system test",
		tags:     []string{"wesline", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func upstreamLabel(name string) string {
	switch strings.TrimSpace(name) {
	case "api":
		return "Wes API"
	case "worker":
		return "Cloudflare Worker"
	case "":
		return "Upstream"
	default:
		return name
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifyDaemonStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyDaemonStopped(context.Context, time.Duration) error  { return nil }
func (noopService) NotifyUpstreamDown(context.Context, string, string, error) error {
	return nil
}
func (noopService) NotifyUpstreamRecovered(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
