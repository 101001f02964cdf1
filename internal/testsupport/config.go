package testsupport

import (
	"path/filepath"
	"testing"

	"wesline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The Wes API points at an unroutable local port until WithUpstreams
// replaces it, and rate limiting is off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Upstream.Mode = config.ModeAPI
	cfgVal.Upstream.WesAPIURL = "http://127.0.0.1:1"
	cfgVal.Upstream.TimeoutSeconds = 5
	cfgVal.RateLimit.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithUpstreams sets the Wes API and Worker URLs and picks the matching mode:
// failover when both are set, otherwise whichever one is present.
func WithUpstreams(apiURL, workerURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upstream.WesAPIURL = apiURL
		b.cfg.Upstream.WorkerURL = workerURL
		switch {
		case apiURL != "" && workerURL != "":
			b.cfg.Upstream.Mode = config.ModeFailover
		case workerURL != "":
			b.cfg.Upstream.Mode = config.ModeWorker
		default:
			b.cfg.Upstream.Mode = config.ModeAPI
		}
	}
}

// WithAPIToken requires a bearer token on non-proxy routes.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithRateLimit enables per-client limiting.
func WithRateLimit(perSecond float64, burst int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.RateLimit.Enabled = true
		b.cfg.RateLimit.RequestsPerSecond = perSecond
		b.cfg.RateLimit.Burst = burst
	}
}

// WithAllowedOrigins replaces the CORS origin list.
func WithAllowedOrigins(origins ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CORS.AllowedOrigins = origins
	}
}

// WithNtfyTopic enables notifications against topicURL.
func WithNtfyTopic(topicURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topicURL
	}
}

// WithHistoryDisabled turns off result persistence.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
