package eventlog

import (
	"context"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/watcher"

	"github.com/rs/zerolog"
)

// ConsoleSink prints one line per event
type ConsoleSink struct {
	logger zerolog.Logger
}

// NewConsoleSink creates a sink writing through logger
func NewConsoleSink(logger zerolog.Logger) *ConsoleSink {
	return &ConsoleSink{logger: logger}
}

// Record logs event. Deleted entries are logged at warn level.
func (s *ConsoleSink) Record(_ context.Context, event watcher.ChangeEvent) error {
	e := s.logger.Info()
	if event.Type == watcher.EventDeleted {
		e = s.logger.Warn()
	}

	meta := event.Metadata
	e.Str("event", event.Type.String()).
		Str("name", event.Name).
		Stringer("kind", meta.Kind).
		Uint64("size", meta.Size).
		Str("owner", meta.Owner).
		Str("group", meta.Group).
		Str("permissions", meta.PermissionString()).
		Str("modified", meta.Timestamp()).
		Msgf("%s DETECTED: %s", event.Type, event.Name)
	return nil
}

// Close is a no-op
func (s *ConsoleSink) Close() error {
	return nil
}
