package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
)

// Poller drives a Differencer at a fixed interval and forwards the events of
// every tick to a BatchProcessor. Cancellation is observed between ticks.
type Poller struct {
	differ    *Differencer
	processor BatchProcessor
	config    WatcherConfig
	recorder  Recorder
	stats     *common.TickMetrics

	entryErrors atomic.Int64
}

// NewPoller creates a poller. recorder may be nil.
func NewPoller(differ *Differencer, processor BatchProcessor, config WatcherConfig, recorder Recorder) *Poller {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &Poller{
		differ:    differ,
		processor: processor,
		config:    config,
		recorder:  recorder,
		stats:     common.NewTickMetrics(),
	}
}

// HandleEntryError logs and records an entry that could not be observed.
// It is installed on the Differencer with WithEntryErrorHandler.
func (p *Poller) HandleEntryError(err error) {
	logEntryError(err)
	p.entryErrors.Add(1)
	p.recorder.ObserveEntryError(err)
}

// Stats returns in-process tick statistics
func (p *Poller) Stats() map[string]interface{} {
	return p.stats.GetMetrics()
}

// Run primes the differencer and polls until ctx is cancelled or a fatal
// error occurs. A cancelled context is a clean stop and returns nil.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.differ.Prime(ctx); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case common.IsFatal(err) && p.config.RetryUnavailable:
			slog.Warn("Monitored directory unavailable, starting with an empty snapshot", "directory", p.differ.Directory(), "error", err)
		default:
			return fmt.Errorf("initial scan failed: %w", err)
		}
	}
	p.recorder.SetSnapshotSize(p.differ.Snapshot().Len())

	slog.Info("Polling watcher started", "directory", p.differ.Directory(), "interval", p.config.Interval)

	timer := time.NewTimer(p.config.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Polling watcher stopped", "directory", p.differ.Directory())
			return nil
		case <-timer.C:
		}

		if err := p.RunOnce(ctx); err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				slog.Info("Polling watcher stopped", "directory", p.differ.Directory())
				return nil
			case common.IsFatal(err) && p.config.RetryUnavailable:
				slog.Warn("Monitored directory unavailable, retrying next interval", "directory", p.differ.Directory(), "error", err)
			default:
				return err
			}
		}

		timer.Reset(p.config.Interval)
	}
}

// RunOnce performs a single tick and hands its events to the processor.
// Events already detected are delivered even if ctx is cancelled meanwhile.
func (p *Poller) RunOnce(ctx context.Context) error {
	start := time.Now()
	p.entryErrors.Store(0)

	events, err := p.differ.Tick(ctx)
	p.recorder.ObserveTick(time.Since(start), err)
	if err != nil {
		p.stats.UpdateMetrics(start, false, nil, int(p.entryErrors.Load()))
		return err
	}

	counts := make(map[string]int, 3)
	for _, event := range events {
		counts[event.Type.String()]++
		p.recorder.ObserveEvent(event)
	}
	p.recorder.SetSnapshotSize(p.differ.Snapshot().Len())

	if len(events) > 0 {
		slog.Debug("Tick detected changes", "events", len(events))
		if err := p.processor.Process(context.WithoutCancel(ctx), events); err != nil {
			p.stats.UpdateMetrics(start, false, counts, int(p.entryErrors.Load()))
			return fmt.Errorf("failed to record events: %w", err)
		}
	}

	p.stats.UpdateMetrics(start, true, counts, int(p.entryErrors.Load()))
	return nil
}

type noopRecorder struct{}

func (noopRecorder) ObserveTick(time.Duration, error) {}
func (noopRecorder) ObserveEvent(ChangeEvent)         {}
func (noopRecorder) ObserveEntryError(error)          {}
func (noopRecorder) SetSnapshotSize(int)              {}
