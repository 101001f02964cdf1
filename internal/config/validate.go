package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateNotation(); err != nil {
		return err
	}
	return validateURL("notifications.ntfy_topic", c.Notifications.NtfyTopic)
}

func (c *Config) validateUpstream() error {
	switch c.Upstream.Mode {
	case ModeAPI:
		if c.Upstream.WesAPIURL == "" {
			return missingUpstreamError("upstream.wes_api_url is required when upstream.mode is \"api\" (or set WES_API_URL)")
		}
	case ModeWorker:
		if c.Upstream.WorkerURL == "" {
			return missingUpstreamError("upstream.worker_url is required when upstream.mode is \"worker\" (or set WES_WORKER_URL)")
		}
	case ModeFailover:
		if c.Upstream.WesAPIURL == "" && c.Upstream.WorkerURL == "" {
			return missingUpstreamError("upstream.wes_api_url or upstream.worker_url must be set (or set WES_API_URL / WES_WORKER_URL)")
		}
	default:
		return fmt.Errorf("upstream.mode must be one of %q, %q, %q (got %q)", ModeAPI, ModeWorker, ModeFailover, c.Upstream.Mode)
	}
	if err := validateURL("upstream.wes_api_url", c.Upstream.WesAPIURL); err != nil {
		return err
	}
	if err := validateURL("upstream.worker_url", c.Upstream.WorkerURL); err != nil {
		return err
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return errors.New("upstream.timeout_seconds must be positive")
	}
	return nil
}

func missingUpstreamError(message string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%s; edit %s (create with 'wesline config init')", message, defaultPath)
}

func validateURL(key, value string) error {
	if value == "" {
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) URL (got %q)", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host (got %q)", key, value)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Bind == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.WriteTimeout < 0 {
		return errors.New("server.write_timeout must be >= 0")
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if !c.RateLimit.Enabled {
		return nil
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return errors.New("rate_limit.requests_per_second must be positive when rate_limit.enabled is true")
	}
	if c.RateLimit.Burst < 1 {
		return errors.New("rate_limit.burst must be >= 1 when rate_limit.enabled is true")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if !c.History.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateNotation() error {
	if _, _, err := ParseFraction(c.Notation.Meter); err != nil {
		return fmt.Errorf("notation.meter: %w", err)
	}
	if _, _, err := ParseFraction(c.Notation.UnitLength); err != nil {
		return fmt.Errorf("notation.unit_length: %w", err)
	}
	return nil
}

// ParseFraction parses values such as "4/4" or "1/8" into numerator and denominator.
func ParseFraction(value string) (int, int, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		return 0, 0, fmt.Errorf("expected fraction like 4/4, got %q", value)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("invalid numerator in %q", value)
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d <= 0 {
		return 0, 0, fmt.Errorf("invalid denominator in %q", value)
	}
	return n, d, nil
}
