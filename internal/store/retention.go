package store

import (
	"context"
	"log/slog"
	"time"
)

const retentionInterval = time.Hour

// PruneCallback is called with the number of interviews a sweep removed.
type PruneCallback func(deleted int64)

// StartRetentionWorker runs a background goroutine that periodically deletes
// interviews older than retention. A non-positive retention disables it.
func StartRetentionWorker(ctx context.Context, repo Repository, retention time.Duration, onPrune PruneCallback) {
	startRetentionWorker(ctx, repo, retention, retentionInterval, onPrune)
}

func startRetentionWorker(ctx context.Context, repo Repository, retention, interval time.Duration, onPrune PruneCallback) {
	if retention <= 0 {
		slog.Info("Archive retention disabled")
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", interval, "retention", retention)

		pruneArchive(ctx, repo, retention, onPrune)
		for {
			select {
			case <-ticker.C:
				pruneArchive(ctx, repo, retention, onPrune)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func pruneArchive(ctx context.Context, repo Repository, retention time.Duration, onPrune PruneCallback) {
	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("Retention worker failed to prune archive", "error", err)
		return
	}
	if deleted == 0 {
		return
	}
	slog.Info("Retention worker pruned interviews", "count", deleted)
	if onPrune != nil {
		onPrune(deleted)
	}
}
