package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"wesline/internal/config"
	"wesline/internal/history"
	"wesline/internal/services/wesapi"
)

const upstreamCheckTimeout = 5 * time.Second

// Upstream is the slice of a Wes API client a reachability check needs.
type Upstream interface {
	Name() string
	BaseURL() string
	Health(ctx context.Context) error
}

var _ Upstream = (*wesapi.Client)(nil)

// CheckUpstream verifies that an upstream answers GET /health. It uses a
// 5-second timeout; pass a client built with a single retry attempt.
func CheckUpstream(ctx context.Context, upstream Upstream) Result {
	name := upstreamLabel(upstream.Name())
	if upstream.BaseURL() == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, upstreamCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := upstream.Health(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", upstream.BaseURL(), summarizeUpstreamError(err))}
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable in %s)", upstream.BaseURL(), elapsed)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckHistory opens the history database, which applies the schema, and
// counts stored entries.
func CheckHistory(ctx context.Context, cfg *config.Config) Result {
	const name = "History database"

	store, err := history.Open(cfg)
	if err != nil {
		if errors.Is(err, history.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (schema mismatch; move the file aside to recreate it)", cfg.HistoryPath())}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.HistoryPath(), err)}
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.HistoryPath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", cfg.HistoryPath(), count)}
}

func upstreamLabel(name string) string {
	switch name {
	case wesapi.UpstreamWorker:
		return "Cloudflare Worker"
	default:
		return "Wes API"
	}
}

// summarizeUpstreamError produces a human-readable summary for upstream health check failures.
func summarizeUpstreamError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (upstream unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (upstream unreachable)"
	}
	var statusErr *wesapi.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("health returned http %d", statusErr.StatusCode)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "unreachable: " + opErr.Err.Error()
	}
	return err.Error()
}
