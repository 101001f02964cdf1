package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"wesline/internal/api"
	"wesline/internal/services/wesapi"
)

const probeTimeout = 3 * time.Second

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := api.StatusResponse{
		Version:     s.version,
		PID:         os.Getpid(),
		StartedAt:   s.started,
		Mode:        s.cfg.Upstream.Mode,
		ProxyPrefix: s.cfg.Upstream.Prefix,
		RateLimited: s.cfg.RateLimit.Enabled,
		History:     s.history != nil && s.cfg.History.Enabled,
		Upstreams:   s.probeUpstreams(r.Context()),
	}
	if resp.History {
		count, err := s.history.Count(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		resp.HistoryCount = count
	}
	writeJSON(w, http.StatusOK, resp)
}

// probeUpstreams checks every configured upstream concurrently. A failed
// probe is reported, not returned.
func (s *Server) probeUpstreams(ctx context.Context) []api.UpstreamStatus {
	results := make([]api.UpstreamStatus, len(s.probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range s.probes {
		g.Go(func() error {
			results[i] = probeOne(gctx, probe)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func probeOne(ctx context.Context, probe wesapi.API) api.UpstreamStatus {
	status := api.UpstreamStatus{Name: probe.Name()}
	if client, ok := probe.(interface{ BaseURL() string }); ok {
		status.URL = client.BaseURL()
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := probe.Health(ctx)
	status.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Healthy = true
	return status
}
