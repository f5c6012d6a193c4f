package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/db"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/watcher"
)

const summaryTimeout = 5 * time.Second

// logSummary logs what this run observed. store may be nil.
func logSummary(ctx context.Context, logger *slog.Logger, poller *watcher.Poller, processor *watcher.SinkProcessor, store *db.EventStore) {
	stats := poller.Stats()
	logger.Info("Monitoring summary",
		"ticks", stats["total_operations"],
		"failed_ticks", stats["failed_ops"],
		"events", stats["events"],
		"entry_errors", stats["entry_errors"],
		"recorded_events", processor.ProcessedEvents(),
	)

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	counts, err := store.CountByType(ctx)
	if err != nil {
		logger.Warn("Failed to read event store totals", "error", err)
		return
	}
	logger.Info("Event store totals", "run_id", store.RunID(), "created", counts["CREATED"], "modified", counts["MODIFIED"], "deleted", counts["DELETED"])

	latest, err := store.Recent(ctx, 1)
	if err != nil {
		logger.Warn("Failed to read latest stored event", "error", err)
		return
	}
	if len(latest) > 0 {
		ev := latest[0]
		logger.Info("Latest stored event", "event", ev.Event, "name", ev.Name, "detected_at", ev.DetectedAt.Local().Format(time.DateTime))
	}
}
