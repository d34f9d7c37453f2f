package preflight

import (
	"context"

	"nytbot/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	return []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Results directory", cfg.Paths.ResultsDir),
		CheckArtifactPath("Best-seller artifact", cfg.Paths.BestSellersFile),
		CheckArtifactPath("Review artifact", cfg.Paths.ReviewsFile),
		CheckNYT(ctx, cfg),
		CheckOpenLibrary(ctx, cfg),
	}
}

// Failed reports whether any check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
