package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/watcher"

	"github.com/google/uuid"
)

// StoredEvent is one row of the events table
type StoredEvent struct {
	ID          int64
	RunID       uuid.UUID
	DetectedAt  time.Time
	Event       string
	Name        string
	Kind        string
	Size        uint64
	Owner       string
	Group       string
	Permissions string
	ModifiedAt  time.Time
}

// EventStore records change events in a libsql database. Every process run
// gets its own run id so events of separate runs can be told apart.
type EventStore struct {
	mu     sync.Mutex
	db     *sql.DB
	runID  uuid.UUID
	closed bool
}

// OpenEventStore connects to dsn and creates the events table if needed
func OpenEventStore(dsn string) (*EventStore, error) {
	db, err := ConnectToDB(dsn)
	if err != nil {
		return nil, err
	}

	store := &EventStore{db: db, runID: uuid.New()}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("Event store ready", "dsn", dsn, "run_id", store.runID)
	return store, nil
}

// init sets up the events table.
func (s *EventStore) init() error {
	createTables := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			detected_at TEXT NOT NULL,
			event TEXT NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			owner TEXT,
			grp TEXT,
			permissions TEXT,
			modified_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_name ON events (name)`,
	}
	for _, query := range createTables {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create events table: %w", err)
		}
	}
	return nil
}

// RunID identifies the events recorded by this store instance
func (s *EventStore) RunID() uuid.UUID {
	return s.runID
}

// Record inserts event
func (s *EventStore) Record(ctx context.Context, event watcher.ChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return common.ErrSinkClosed
	}

	meta := event.Metadata
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO events (run_id, detected_at, event, name, kind, size_bytes, owner, grp, permissions, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID.String(),
		event.DetectedAt.UTC().Format(time.RFC3339Nano),
		event.Type.String(),
		event.Name,
		meta.Kind.String(),
		int64(meta.Size),
		meta.Owner,
		meta.Group,
		meta.PermissionString(),
		meta.ModifiedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return fmt.Errorf("expected 1 row affected, got %d", rowsAffected)
	}
	return nil
}

// Recent returns up to limit events, newest first
func (s *EventStore) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, detected_at, event, name, kind, size_bytes, owner, grp, permissions, modified_at
		FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var (
			ev         StoredEvent
			runID      string
			detectedAt string
			size       int64
			modifiedAt int64
		)
		if err := rows.Scan(&ev.ID, &runID, &detectedAt, &ev.Event, &ev.Name, &ev.Kind, &size, &ev.Owner, &ev.Group, &ev.Permissions, &modifiedAt); err != nil {
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		if ev.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("error parsing run id: %w", err)
		}
		if ev.DetectedAt, err = time.Parse(time.RFC3339Nano, detectedAt); err != nil {
			return nil, fmt.Errorf("error parsing time: %w", err)
		}
		ev.Size = uint64(size)
		ev.ModifiedAt = time.Unix(modifiedAt, 0)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountByType returns the number of stored events per event label
func (s *EventStore) CountByType(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event, COUNT(*) FROM events GROUP BY event`)
	if err != nil {
		return nil, fmt.Errorf("error counting events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			event string
			n     int64
		)
		if err := rows.Scan(&event, &n); err != nil {
			return nil, fmt.Errorf("error scanning event count: %w", err)
		}
		counts[event] = n
	}
	return counts, rows.Err()
}

// Close closes the database
func (s *EventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
