package preflight

import (
	"context"

	"wesline/internal/config"
	"wesline/internal/services/wesapi"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.History.Enabled {
		results = append(results, CheckHistory(ctx, cfg))
	}

	for _, client := range wesapi.ClientsFromConfig(cfg, wesapi.WithRetryMaxAttempts(1)) {
		results = append(results, CheckUpstream(ctx, client))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
