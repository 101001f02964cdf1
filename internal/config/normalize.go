package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeUpstream()
	c.normalizeCORS()
	c.normalizeRateLimit()
	c.normalizeHistory()
	c.normalizeNotation()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("WESLINE_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
}

func (c *Config) normalizeUpstream() {
	c.Upstream.Mode = strings.ToLower(strings.TrimSpace(c.Upstream.Mode))
	if c.Upstream.Mode == "" {
		c.Upstream.Mode = defaultUpstreamMode
	}
	c.Upstream.WesAPIURL = strings.TrimRight(strings.TrimSpace(c.Upstream.WesAPIURL), "/")
	if c.Upstream.WesAPIURL == "" {
		if value, ok := os.LookupEnv("WES_API_URL"); ok {
			c.Upstream.WesAPIURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.Upstream.WorkerURL = strings.TrimRight(strings.TrimSpace(c.Upstream.WorkerURL), "/")
	if c.Upstream.WorkerURL == "" {
		if value, ok := os.LookupEnv("WES_WORKER_URL"); ok {
			c.Upstream.WorkerURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	prefix := strings.TrimSpace(c.Upstream.Prefix)
	if prefix == "" {
		prefix = defaultUpstreamPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if len(prefix) > 1 {
		prefix = strings.TrimRight(prefix, "/")
	}
	c.Upstream.Prefix = prefix
	if c.Upstream.MaxBodyBytes <= 0 {
		c.Upstream.MaxBodyBytes = defaultMaxBodyBytes
	}
	c.Upstream.UserAgent = strings.TrimSpace(c.Upstream.UserAgent)
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeCORS() {
	c.CORS.AllowedOrigins = normalizeList(c.CORS.AllowedOrigins, defaultAllowedOrigins, false)
	c.CORS.AllowedMethods = normalizeList(c.CORS.AllowedMethods, defaultAllowedMethods, true)
	c.CORS.AllowedHeaders = normalizeList(c.CORS.AllowedHeaders, defaultAllowedHeaders, false)
	if c.CORS.MaxAgeSeconds < 0 {
		c.CORS.MaxAgeSeconds = 0
	}
}

func (c *Config) normalizeRateLimit() {
	if c.RateLimit.IdleSeconds <= 0 {
		c.RateLimit.IdleSeconds = defaultLimiterIdleSeconds
	}
}

func (c *Config) normalizeHistory() {
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
	if c.History.MaxEntries < 0 {
		c.History.MaxEntries = 0
	}
	if c.History.PruneIntervalSeconds <= 0 {
		c.History.PruneIntervalSeconds = defaultHistoryPruneSeconds
	}
}

func (c *Config) normalizeNotation() {
	c.Notation.Meter = strings.TrimSpace(c.Notation.Meter)
	if c.Notation.Meter == "" {
		c.Notation.Meter = defaultMeter
	}
	c.Notation.UnitLength = strings.TrimSpace(c.Notation.UnitLength)
	if c.Notation.UnitLength == "" {
		c.Notation.UnitLength = defaultUnitLength
	}
	if c.Notation.BarsPerLine <= 0 {
		c.Notation.BarsPerLine = defaultBarsPerLine
	}
	if c.Notation.Tempo < 0 {
		c.Notation.Tempo = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("WESLINE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
	if c.Notifications.HealthIntervalSeconds <= 0 {
		c.Notifications.HealthIntervalSeconds = defaultHealthInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeList(values, fallback []string, upper bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if upper {
			normalized = strings.ToUpper(normalized)
		}
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
