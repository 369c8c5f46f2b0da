package preflight

import (
	"context"

	"highlighter/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Advisory results are shown but never block a run.
	Advisory bool
}

// RunAll executes the checks that gate a run.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	results = append(results, CheckReadableDirectory("Input directory", cfg.Paths.InputDir))
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	for _, status := range CheckSystemDeps(cfg) {
		if status.Optional {
			continue
		}
		r := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if r.Passed {
			r.Detail = status.Command
		}
		results = append(results, r)
	}
	return results
}

// Failed returns the blocking results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Advisory {
			failed = append(failed, r)
		}
	}
	return failed
}
