// Package metrics exports polling statistics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/watcher"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dirmon"

// Recorder implements watcher.Recorder on a dedicated registry
type Recorder struct {
	registry     *prometheus.Registry
	ticks        *prometheus.CounterVec
	events       *prometheus.CounterVec
	entryErrors  *prometheus.CounterVec
	tickDuration prometheus.Histogram
	snapshotSize prometheus.Gauge
}

var _ watcher.Recorder = (*Recorder)(nil)

// NewRecorder creates a recorder and registers its collectors
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Polling ticks by result.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Detected change events by type.",
		}, []string{"event"}),
		entryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_errors_total",
			Help:      "Entries skipped during a tick by error kind.",
		}, []string{"kind"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent listing and comparing the monitored directory.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_entries",
			Help:      "Entries in the last recorded snapshot.",
		}),
	}

	r.registry.MustRegister(r.ticks, r.events, r.entryErrors, r.tickDuration, r.snapshotSize)
	return r
}

// Registry returns the registry holding the collectors
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveTick counts a tick and its duration
func (r *Recorder) ObserveTick(duration time.Duration, err error) {
	r.tickDuration.Observe(duration.Seconds())

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		result = "cancelled"
	case common.IsFatal(err):
		result = "unavailable"
	default:
		result = "error"
	}
	r.ticks.WithLabelValues(result).Inc()
}

// ObserveEvent counts a change event
func (r *Recorder) ObserveEvent(event watcher.ChangeEvent) {
	r.events.WithLabelValues(event.Type.String()).Inc()
}

// ObserveEntryError counts a skipped entry
func (r *Recorder) ObserveEntryError(err error) {
	r.entryErrors.WithLabelValues(common.ErrorKind(err)).Inc()
}

// SetSnapshotSize records the snapshot size
func (r *Recorder) SetSnapshotSize(n int) {
	r.snapshotSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Metrics endpoint listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics endpoint: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics endpoint failed: %w", err)
	}
}
