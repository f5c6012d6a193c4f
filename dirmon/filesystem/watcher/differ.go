package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"

	"github.com/sourcegraph/conc/pool"
)

// Differencer compares successive snapshots of one directory.
// It exclusively owns the last snapshot; ticks are serialized.
type Differencer struct {
	dir       string
	lister    DirectoryLister
	extractor MetadataExtractor
	workers   int
	now       func() time.Time
	onError   func(err error)

	tickMu  sync.Mutex // one tick at a time
	stateMu sync.RWMutex
	last    *Snapshot
}

// DifferencerOption configures a Differencer
type DifferencerOption func(*Differencer)

// WithLister replaces the directory lister
func WithLister(l DirectoryLister) DifferencerOption {
	return func(d *Differencer) { d.lister = l }
}

// WithExtractor replaces the metadata extractor
func WithExtractor(e MetadataExtractor) DifferencerOption {
	return func(d *Differencer) { d.extractor = e }
}

// WithWorkers sets the number of concurrent extractions per tick
func WithWorkers(n int) DifferencerOption {
	return func(d *Differencer) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithClock replaces the clock used to stamp events
func WithClock(now func() time.Time) DifferencerOption {
	return func(d *Differencer) { d.now = now }
}

// WithEntryErrorHandler is called for every entry that could not be observed
func WithEntryErrorHandler(fn func(err error)) DifferencerOption {
	return func(d *Differencer) { d.onError = fn }
}

// NewDifferencer creates a Differencer for dir with an empty last snapshot
func NewDifferencer(dir string, opts ...DifferencerOption) *Differencer {
	d := &Differencer{
		dir:     dir,
		lister:  NewDirLister(),
		workers: 1,
		now:     time.Now,
		onError: logEntryError,
		last:    NewSnapshot(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.extractor == nil {
		d.extractor = NewExtractor(NewUserResolver(false))
	}
	return d
}

// Directory returns the monitored directory
func (d *Differencer) Directory() string {
	return d.dir
}

// Snapshot returns a copy of the last snapshot
func (d *Differencer) Snapshot() *Snapshot {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.last.Clone()
}

// Prime records the current directory state without emitting events.
// Entries that cannot be observed are skipped.
func (d *Differencer) Prime(ctx context.Context) error {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	names, err := d.lister.List(d.dir)
	if err != nil {
		return err
	}

	initial := NewSnapshot()
	for i, r := range d.extractAll(names) {
		if r.err != nil {
			slog.Debug("Skipping entry during initial scan", "entry", names[i], "error", r.err)
			continue
		}
		initial.Put(names[i], r.meta)
	}

	d.replace(initial)
	slog.Debug("Initial snapshot recorded", "directory", d.dir, "entries", initial.Len())
	return nil
}

// Tick lists the directory, compares it with the last snapshot and returns
// the created and modified events in listing order followed by the deleted
// events in name order. On error the last snapshot is left unchanged.
func (d *Differencer) Tick(ctx context.Context) ([]ChangeEvent, error) {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := d.lister.List(d.dir)
	if err != nil {
		return nil, err
	}

	d.stateMu.RLock()
	last := d.last
	d.stateMu.RUnlock()

	detectedAt := d.now()
	current := NewSnapshot()
	listed := make(map[string]struct{}, len(names))
	var events []ChangeEvent

	for i, r := range d.extractAll(names) {
		name := names[i]
		listed[name] = struct{}{}
		prev, known := last.Get(name)

		if r.err != nil {
			d.onError(r.err)
			// Keep the last-known record so an unreadable entry is neither
			// deleted nor re-created; deletion follows the listing only.
			if known {
				current.Put(name, prev)
			}
			continue
		}

		current.Put(name, r.meta)
		switch {
		case !known:
			events = append(events, ChangeEvent{Type: EventCreated, Name: name, Metadata: r.meta, DetectedAt: detectedAt})
		case !prev.Equal(r.meta):
			events = append(events, ChangeEvent{Type: EventModified, Name: name, Metadata: r.meta, DetectedAt: detectedAt})
		}
	}

	last.Walk(func(name string, meta EntryMetadata) bool {
		if _, ok := listed[name]; !ok {
			events = append(events, ChangeEvent{Type: EventDeleted, Name: name, Metadata: meta, DetectedAt: detectedAt})
		}
		return true
	})

	d.replace(current)
	return events, nil
}

func (d *Differencer) replace(s *Snapshot) {
	d.stateMu.Lock()
	d.last = s
	d.stateMu.Unlock()
}

type extraction struct {
	meta EntryMetadata
	err  error
}

// extractAll extracts every name; results are indexed like names
func (d *Differencer) extractAll(names []string) []extraction {
	results := make([]extraction, len(names))

	if d.workers <= 1 || len(names) < 2 {
		for i, name := range names {
			results[i] = d.extractOne(name)
		}
		return results
	}

	p := pool.New().WithMaxGoroutines(d.workers)
	for i, name := range names {
		p.Go(func() {
			results[i] = d.extractOne(name)
		})
	}
	p.Wait()
	return results
}

func (d *Differencer) extractOne(name string) extraction {
	meta, err := d.extractor.Extract(filepath.Join(d.dir, name))
	return extraction{meta: meta, err: err}
}

func logEntryError(err error) {
	if common.IsTransient(err) {
		slog.Debug("Entry disappeared before it could be read", "error", err)
		return
	}
	slog.Warn("Skipping entry for this tick", "error", err)
}
