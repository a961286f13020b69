package preflight

import (
	"context"

	"fieldsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Data directory (always checked; the queue database lives here)
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDiskSpace("Data directory free space", cfg.Paths.DataDir, minFreeBytes))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	// Remote API (when configured; the daemon still starts offline without it)
	if cfg.Remote.BaseURL != "" {
		results = append(results, CheckRemote(ctx, cfg))
	}

	return results
}

// AllPassed reports whether every result passed. Remote reachability is
// advisory and excluded: an offline start is normal for this daemon.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if result.Name == remoteCheckName {
			continue
		}
		if !result.Passed {
			return false
		}
	}
	return true
}
