package watcher

import (
	"context"
	"fmt"
	"time"
)

// DefaultConfig returns a default watcher configuration
func DefaultConfig() WatcherConfig {
	return WatcherConfig{
		Interval:    5 * time.Second,
		WorkerCount: 1,
	}
}

// NewWatcher wires an extractor, a differencer and a poller for config.Directory
func NewWatcher(config WatcherConfig, processor BatchProcessor, recorder Recorder) (*Poller, error) {
	if config.Directory == "" {
		return nil, fmt.Errorf("watcher directory cannot be empty")
	}
	if processor == nil {
		return nil, fmt.Errorf("watcher requires a batch processor")
	}

	extractor := NewExtractor(NewUserResolver(config.NumericIdentityFallback))

	var poller *Poller
	differ := NewDifferencer(config.Directory,
		WithExtractor(extractor),
		WithWorkers(config.WorkerCount),
		WithEntryErrorHandler(func(err error) { poller.HandleEntryError(err) }),
	)
	poller = NewPoller(differ, processor, config, recorder)
	return poller, nil
}

// WatchDirectory is a convenience function that polls dir every interval and
// calls eventHandler for each change until ctx is cancelled
func WatchDirectory(ctx context.Context, dir string, interval time.Duration, eventHandler func(ChangeEvent)) error {
	config := DefaultConfig()
	config.Directory = dir
	config.Interval = interval

	processor := NewSimpleProcessor(func(ctx context.Context, event ChangeEvent) error {
		eventHandler(event)
		return nil
	})

	poller, err := NewWatcher(config, processor, nil)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	return poller.Run(ctx)
}
