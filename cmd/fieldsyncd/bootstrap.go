package main

import (
	"context"
	"fmt"
	"log/slog"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/preflight"
	"fieldsync/internal/uploader"
)

// buildRegistry wires one HTTP uploader per capture type.
func buildRegistry(cfg *config.Config) (*uploader.Registry, error) {
	registry := uploader.NewRegistry()
	client := uploader.NewRemoteClient(cfg)
	if err := client.RegisterAll(registry); err != nil {
		return nil, fmt.Errorf("register uploaders: %w", err)
	}
	return registry, nil
}

// runPreflight logs every check result and reports whether startup may
// proceed. Remote reachability is advisory; local failures are fatal.
func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) bool {
	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("prepare directories", logging.Error(err))
		return false
	}

	results := preflight.RunAll(ctx, cfg)
	for _, result := range results {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
		)
	}
	if !preflight.AllPassed(results) {
		logger.Error("preflight failed; refusing to start",
			logging.String(logging.FieldErrorHint, "fix the reported paths and retry"),
		)
		return false
	}
	return true
}
