package watcher

import (
	"context"
	"time"
)

// EventType represents the kind of change detected between two snapshots
type EventType int

const (
	// EventCreated represents an entry absent from the previous snapshot
	EventCreated EventType = iota
	// EventModified represents an entry whose metadata changed
	EventModified
	// EventDeleted represents an entry no longer returned by the listing
	EventDeleted
)

// String returns the label written to event records
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "CREATED"
	case EventModified:
		return "MODIFIED"
	case EventDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// ChangeEvent represents one detected change.
// Metadata is the current record for created and modified entries and the
// last-known record for deleted ones.
type ChangeEvent struct {
	Type       EventType
	Name       string
	Metadata   EntryMetadata
	DetectedAt time.Time
}

// DirectoryLister lists the direct children of a directory
type DirectoryLister interface {
	// List returns entry names; it fails with ErrDirectoryUnavailable
	List(path string) ([]string, error)
}

// IdentityResolver maps numeric owner and group ids to names
type IdentityResolver interface {
	UserName(uid uint32) (string, error)
	GroupName(gid uint32) (string, error)
}

// MetadataExtractor produces the metadata record of a single path
type MetadataExtractor interface {
	Extract(path string) (EntryMetadata, error)
}

// EventSink durably records change events, one at a time
type EventSink interface {
	Record(ctx context.Context, event ChangeEvent) error
	Close() error
}

// BatchProcessor processes the events produced by one tick
type BatchProcessor interface {
	// Process processes a batch of events
	Process(ctx context.Context, events []ChangeEvent) error

	// Close stops the processor
	Close() error
}

// Recorder receives observations about ticks, used for metrics
type Recorder interface {
	ObserveTick(duration time.Duration, err error)
	ObserveEvent(event ChangeEvent)
	ObserveEntryError(err error)
	SetSnapshotSize(n int)
}

// WatcherConfig holds configuration for the polling watcher
type WatcherConfig struct {
	// Directory is the monitored directory
	Directory string

	// Interval is the fixed delay between ticks
	Interval time.Duration

	// WorkerCount is the number of concurrent metadata extractions per tick
	WorkerCount int

	// RetryUnavailable keeps polling when the directory is unavailable instead of stopping
	RetryUnavailable bool

	// NumericIdentityFallback renders unresolvable owners and groups as numeric ids
	NumericIdentityFallback bool
}
