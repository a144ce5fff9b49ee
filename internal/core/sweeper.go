package core

// sweeper.go periodically removes finished import jobs from the job store.
//
// The sweeper is long-running and stops with its context. A failed sweep
// is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// StartJobSweeper purges jobs finished more than retention ago. It sweeps
// once on start, then every interval, until ctx is cancelled.
func StartJobSweeper(ctx context.Context, store JobStore, retention, interval time.Duration) {
	slog.Info("import job sweeper started",
		"retention", retention.String(),
		"interval", interval.String(),
	)

	sweepJobs(ctx, store, retention)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("import job sweeper stopped")
			return
		case <-ticker.C:
			sweepJobs(ctx, store, retention)
		}
	}
}

func sweepJobs(ctx context.Context, store JobStore, retention time.Duration) {
	start := time.Now()
	purged, err := store.Purge(ctx, start.Add(-retention))
	if err != nil {
		slog.Error("import job sweep failed", "error", err)
		return
	}
	if purged > 0 {
		slog.Info("purged finished import jobs",
			"jobs_purged", purged,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
