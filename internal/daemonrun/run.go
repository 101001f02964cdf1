package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"wesline/internal/config"
	"wesline/internal/daemon"
	"wesline/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Version     string
}

// Run starts the wesline daemon and blocks until SIGINT, SIGTERM, or cmdCtx
// cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logHub := logging.NewStreamHub(4096)
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
		FilePath:    cfg.LogPath(),
		Development: opts.Development,
		Stream:      logHub,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logStartupSnapshot(logger, cfg, opts.Version)
	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(cfg, logger,
		daemon.WithStreamHub(logHub),
		daemon.WithVersion(opts.Version),
	)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		logger.Error("daemon run failed", logging.Error(err))
		return err
	}
	logger.Info("wesline daemon shut down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config, version string) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("startup snapshot",
		logging.String("version", version),
		logging.String("bind", cfg.Server.Bind),
		logging.String("mode", cfg.Upstream.Mode),
		logging.String("wes_api_url", cfg.Upstream.WesAPIURL),
		logging.String("worker_url", cfg.Upstream.WorkerURL),
		logging.String("proxy_prefix", cfg.Upstream.Prefix),
		logging.Bool("api_token_present", strings.TrimSpace(cfg.Server.APIToken) != ""),
		logging.Bool("rate_limit", cfg.RateLimit.Enabled),
		logging.Bool("history", cfg.History.Enabled),
		logging.Bool("notifications", cfg.Notifications.NtfyTopic != ""),
		logging.String("data_dir", cfg.Paths.DataDir),
	)
}
