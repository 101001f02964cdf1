package daemon

import (
	"context"
	"log/slog"
	"time"

	"wesline/internal/logging"
	"wesline/internal/notifications"
	"wesline/internal/services/wesapi"
)

const watchProbeTimeout = 5 * time.Second

// upstreamWatcher probes upstreams on an interval and alerts on transitions
// between reachable and unreachable. Upstreams start out assumed healthy, so
// an outage present at startup is reported on the first check.
type upstreamWatcher struct {
	probes   []wesapi.API
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time

	downSince map[string]time.Time
}

func newUpstreamWatcher(probes []wesapi.API, notifier notifications.Service, logger *slog.Logger) *upstreamWatcher {
	return &upstreamWatcher{
		probes:    probes,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		downSince: make(map[string]time.Time),
	}
}

func (w *upstreamWatcher) run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *upstreamWatcher) check(ctx context.Context) {
	for _, probe := range w.probes {
		if ctx.Err() != nil {
			return
		}
		name := probe.Name()
		url := probeURL(probe)

		probeCtx, cancel := context.WithTimeout(ctx, watchProbeTimeout)
		err := probe.Health(probeCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}

		since, wasDown := w.downSince[name]
		switch {
		case err != nil && !wasDown:
			w.downSince[name] = w.now()
			w.logger.Warn("upstream unreachable",
				logging.String(logging.FieldUpstream, name),
				logging.String("url", url),
				logging.Error(err),
			)
			w.notify(ctx, name, w.notifier.NotifyUpstreamDown(ctx, name, url, err))
		case err == nil && wasDown:
			delete(w.downSince, name)
			downtime := w.now().Sub(since)
			w.logger.Info("upstream recovered",
				logging.String(logging.FieldUpstream, name),
				logging.Duration("downtime", downtime),
			)
			w.notify(ctx, name, w.notifier.NotifyUpstreamRecovered(ctx, name, url, downtime))
		}
	}
}

func (w *upstreamWatcher) notify(ctx context.Context, upstream string, err error) {
	if err != nil && ctx.Err() == nil {
		w.logger.Warn("upstream notification failed",
			logging.String(logging.FieldUpstream, upstream),
			logging.Error(err),
		)
	}
}

func probeURL(probe wesapi.API) string {
	if client, ok := probe.(interface{ BaseURL() string }); ok {
		return client.BaseURL()
	}
	return ""
}
