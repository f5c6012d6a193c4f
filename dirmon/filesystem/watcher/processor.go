package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// SinkProcessor implements BatchProcessor by recording every event, in
// order, into each configured sink
type SinkProcessor struct {
	mu     sync.Mutex
	sinks  []EventSink
	closed bool

	// Statistics
	processedEvents int64
}

// NewSinkProcessor creates a processor writing to sinks
func NewSinkProcessor(sinks ...EventSink) *SinkProcessor {
	return &SinkProcessor{sinks: sinks}
}

// Process records a batch of events. The first sink error aborts the batch.
func (p *SinkProcessor) Process(ctx context.Context, events []ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("processor is closed")
	}

	for _, event := range events {
		for _, sink := range p.sinks {
			if err := sink.Record(ctx, event); err != nil {
				return fmt.Errorf("error recording %s event for %s: %w", event.Type, event.Name, err)
			}
		}
		p.processedEvents++
	}

	slog.Debug("Recorded event batch", "count", len(events), "sinks", len(p.sinks))
	return nil
}

// ProcessedEvents returns how many events were delivered to all sinks
func (p *SinkProcessor) ProcessedEvents() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processedEvents
}

// Close closes every sink
func (p *SinkProcessor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SimpleProcessor provides a simpler interface for basic event processing
type SimpleProcessor struct {
	handler func(ctx context.Context, event ChangeEvent) error
}

// NewSimpleProcessor creates a new simple processor
func NewSimpleProcessor(handler func(ctx context.Context, event ChangeEvent) error) *SimpleProcessor {
	return &SimpleProcessor{
		handler: handler,
	}
}

// Process processes events one by one
func (p *SimpleProcessor) Process(ctx context.Context, events []ChangeEvent) error {
	for _, event := range events {
		if err := p.handler(ctx, event); err != nil {
			return fmt.Errorf("error processing event %s %s: %w", event.Type, event.Name, err)
		}
	}
	return nil
}

// Close is a no-op for simple processor
func (p *SimpleProcessor) Close() error {
	return nil
}
