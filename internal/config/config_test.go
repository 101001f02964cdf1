package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"wesline/internal/config"
)

func TestLoadDefaultConfigUsesEnvUpstreamAndExpandsPaths(t *testing.T) {
	t.Setenv("WES_API_URL", "http://wes.example:5000/")
	t.Setenv("WES_WORKER_URL", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "wesline")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Upstream.WesAPIURL != "http://wes.example:5000" {
		t.Fatalf("expected trimmed upstream from env, got %q", cfg.Upstream.WesAPIURL)
	}
	if cfg.Upstream.Mode != config.ModeFailover {
		t.Fatalf("unexpected mode: %q", cfg.Upstream.Mode)
	}
	if cfg.Upstream.Prefix != "/api" {
		t.Fatalf("unexpected prefix: %q", cfg.Upstream.Prefix)
	}
	if cfg.Server.Bind != "127.0.0.1:8787" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected allowed origins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.HistoryPath() != filepath.Join(wantData, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadWithoutUpstreamFails(t *testing.T) {
	t.Setenv("WES_API_URL", "")
	t.Setenv("WES_WORKER_URL", "")
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error when no upstream configured")
	}
	if !strings.Contains(err.Error(), "wes_api_url") {
		t.Fatalf("expected error to mention wes_api_url, got %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "wesline.toml")

	type payload struct {
		Upstream struct {
			Mode      string `toml:"mode"`
			WorkerURL string `toml:"worker_url"`
			Prefix    string `toml:"prefix"`
		} `toml:"upstream"`
		CORS struct {
			AllowedOrigins []string `toml:"allowed_origins"`
			AllowedMethods []string `toml:"allowed_methods"`
		} `toml:"cors"`
		Notation struct {
			Meter string `toml:"meter"`
		} `toml:"notation"`
	}
	custom := payload{}
	custom.Upstream.Mode = " Worker "
	custom.Upstream.WorkerURL = "https://wes.workers.dev/"
	custom.Upstream.Prefix = "proxy/"
	custom.CORS.AllowedOrigins = []string{"https://app.example", " https://app.example ", ""}
	custom.CORS.AllowedMethods = []string{"get", "post"}
	custom.Notation.Meter = "3/4"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Upstream.Mode != config.ModeWorker {
		t.Fatalf("expected worker mode, got %q", cfg.Upstream.Mode)
	}
	if cfg.Upstream.WorkerURL != "https://wes.workers.dev" {
		t.Fatalf("unexpected worker url: %q", cfg.Upstream.WorkerURL)
	}
	if cfg.Upstream.Prefix != "/proxy" {
		t.Fatalf("unexpected prefix: %q", cfg.Upstream.Prefix)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.example" {
		t.Fatalf("expected deduplicated origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if strings.Join(cfg.CORS.AllowedMethods, ",") != "GET,POST" {
		t.Fatalf("expected upper-cased methods, got %v", cfg.CORS.AllowedMethods)
	}
	if cfg.Notation.Meter != "3/4" {
		t.Fatalf("unexpected meter: %q", cfg.Notation.Meter)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "wesline") {
		t.Fatalf("expected data dir to contain wesline, got %q", cfg.Paths.DataDir)
	}
	if cfg.Upstream.WesAPIURL == "" {
		t.Fatal("expected sample to carry a wes_api_url placeholder")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Upstream.WesAPIURL = "http://localhost:5000"
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown mode", func(c *config.Config) { c.Upstream.Mode = "round-robin" }},
		{"worker mode without worker", func(c *config.Config) { c.Upstream.Mode = config.ModeWorker }},
		{"relative url", func(c *config.Config) { c.Upstream.WesAPIURL = "localhost:5000" }},
		{"ftp url", func(c *config.Config) { c.Upstream.WorkerURL = "ftp://example.com" }},
		{"zero timeout", func(c *config.Config) { c.Upstream.TimeoutSeconds = 0 }},
		{"zero burst", func(c *config.Config) { c.RateLimit.Burst = 0 }},
		{"zero rate", func(c *config.Config) { c.RateLimit.RequestsPerSecond = 0 }},
		{"bad meter", func(c *config.Config) { c.Notation.Meter = "common" }},
		{"bad unit length", func(c *config.Config) { c.Notation.UnitLength = "1/0" }},
		{"ntfy topic without scheme", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/wesline" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected base config to validate, got %v", err)
	}
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.Burst = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled rate limit should skip burst validation, got %v", err)
	}
}

func TestParseFraction(t *testing.T) {
	num, den, err := config.ParseFraction(" 6/8 ")
	if err != nil {
		t.Fatalf("ParseFraction: %v", err)
	}
	if num != 6 || den != 8 {
		t.Fatalf("unexpected fraction %d/%d", num, den)
	}
	for _, bad := range []string{"", "4", "x/4", "4/-1", "0/4"} {
		if _, _, err := config.ParseFraction(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
