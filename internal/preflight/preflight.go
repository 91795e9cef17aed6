package preflight

import (
	"context"

	"pixelwatch/internal/config"
)

// Result reports the outcome of a single preflight check. Advisory results
// are informational and never block a run.
type Result struct {
	Name     string
	Passed   bool
	Advisory bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, endpoint string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDriverBinary(ctx, cfg.DriverBinary()),
		CheckLoopbackPort(),
	}
	if cfg.Paths.Baseline != "" {
		results = append(results, CheckBaseline(cfg.Paths.Baseline))
	}

	endpointResult := CheckEndpoint(ctx, endpoint)
	endpointResult.Advisory = true
	results = append(results, endpointResult)
	return results
}

// Blocking returns the failed results that must stop a run.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Advisory {
			failed = append(failed, r)
		}
	}
	return failed
}
