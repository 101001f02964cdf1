package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"wesline/internal/config"
	"wesline/internal/history"
	"wesline/internal/logging"
	"wesline/internal/notifications"
	"wesline/internal/server"
	"wesline/internal/services/wesapi"
)

// ErrAlreadyRunning is returned when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another wesline daemon instance is already running")

// ErrReused is returned when Run is called on a daemon that already ran.
var ErrReused = errors.New("daemon already ran; construct a new one")

// Daemon runs the HTTP service and background maintenance.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	deps     server.Deps
	notifier notifications.Service
	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	used    atomic.Bool
	ready   chan struct{}
	addr    atomic.Value
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithServerDeps overrides the collaborators handed to the HTTP server.
// Logger and History are always set by the daemon.
func WithServerDeps(deps server.Deps) Option {
	return func(d *Daemon) {
		d.deps = deps
	}
}

// WithStreamHub publishes the hub on GET /logs.
func WithStreamHub(hub *logging.StreamHub) Option {
	return func(d *Daemon) {
		d.deps.Hub = hub
	}
}

// WithVersion sets the version reported by GET /status.
func WithVersion(version string) Option {
	return func(d *Daemon) {
		d.deps.Version = version
	}
}

// WithNotifier replaces the ntfy service built from [notifications].
func WithNotifier(svc notifications.Service) Option {
	return func(d *Daemon) {
		d.notifier = svc
	}
}

// New constructs a daemon. Nothing is opened until Run.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}
	d.deps.Logger = logger
	return d, nil
}

// Run holds the lock and serves until ctx is canceled. A Daemon runs once.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)
	if !d.used.CompareAndSwap(false, true) {
		return ErrReused
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	deps := d.deps
	var store *history.Store
	if d.cfg.History.Enabled {
		store, err = history.Open(d.cfg)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		deps.History = store
	}

	srv, err := server.New(d.cfg, deps)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	if err := srv.Listen(); err != nil {
		return err
	}
	d.addr.Store(srv.Addr())
	close(d.ready)
	started := time.Now()

	d.logger.Info("wesline daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", srv.Addr()),
		logging.Bool("history", store != nil),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	if store != nil {
		g.Go(func() error {
			d.prune(gctx, store)
			return nil
		})
	}
	if notifications.Enabled(d.notifier) {
		g.Go(func() error {
			if err := d.notifier.NotifyDaemonStarted(gctx, d.deps.Version, srv.Addr()); err != nil && gctx.Err() == nil {
				d.logger.Warn("start notification failed", logging.Error(err))
			}
			return nil
		})
		watcher := newUpstreamWatcher(d.watchProbes(), d.notifier, d.logger)
		g.Go(func() error {
			watcher.run(gctx, time.Duration(d.cfg.Notifications.HealthIntervalSeconds)*time.Second)
			return nil
		})
	}
	err = g.Wait()
	d.logger.Info("wesline daemon stopped")
	d.notifyStopped(time.Since(started))
	return err
}

func (d *Daemon) watchProbes() []wesapi.API {
	if len(d.deps.Probes) > 0 {
		return d.deps.Probes
	}
	var probes []wesapi.API
	for _, client := range wesapi.ClientsFromConfig(d.cfg, wesapi.WithRetryMaxAttempts(1)) {
		probes = append(probes, client)
	}
	return probes
}

// notifyStopped runs after the Run context is gone, so it gets its own
// short deadline.
func (d *Daemon) notifyStopped(uptime time.Duration) {
	if !notifications.Enabled(d.notifier) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.notifier.NotifyDaemonStopped(ctx, uptime); err != nil {
		d.logger.Warn("stop notification failed", logging.Error(err))
	}
}

// Ready is closed once the listener is bound.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// Addr returns the bound address after Ready, or "" before.
func (d *Daemon) Addr() string {
	if v, ok := d.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Running reports whether Run is active.
func (d *Daemon) Running() bool { return d.running.Load() }

// LockPath returns the single-instance lock file location.
func (d *Daemon) LockPath() string { return d.lockPath }

// prune applies the retention rules once at startup and then on every tick.
func (d *Daemon) prune(ctx context.Context, store *history.Store) {
	interval := time.Duration(d.cfg.History.PruneIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		removed, err := store.Prune(ctx, d.cfg.HistoryRetention(), d.cfg.History.MaxEntries)
		switch {
		case err != nil && ctx.Err() == nil:
			d.logger.Warn("history prune failed", logging.Error(err))
		case removed > 0:
			d.logger.Info("history pruned", logging.Int("removed", removed))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
