// Package eventlog provides event sinks that persist change events outside
// the process: an append-only CSV file and a console stream.
package eventlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	internal "github.com/ZanzyTHEbar/directory-monitor/dirmon"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/watcher"
)

// Format selects the CSV row layout
type Format string

const (
	// FormatFull writes Timestamp,Event,Filename,Type,Size_Bytes,Owner,Permissions
	FormatFull Format = "full"
	// FormatSimple omits the entry type
	FormatSimple Format = "simple"
)

// Header returns the header row of the format
func (f Format) Header() []string {
	if f == FormatSimple {
		return []string{"Timestamp", "Event", "Filename", "Size", "Owner", "Permissions"}
	}
	return []string{"Timestamp", "Event", "Filename", "Type", "Size_Bytes", "Owner", "Permissions"}
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatFull, FormatSimple:
		return Format(name), nil
	case "":
		return FormatFull, nil
	default:
		return "", fmt.Errorf("unknown event log format %q", name)
	}
}

// Row renders event as a record of format f
func (f Format) Row(event watcher.ChangeEvent) []string {
	meta := event.Metadata
	timestamp := event.DetectedAt.Local().Format(internal.TimestampLayout)
	size := strconv.FormatUint(meta.Size, 10)
	perms := "0o" + meta.PermissionString()

	if f == FormatSimple {
		return []string{timestamp, event.Type.String(), event.Name, size, meta.Owner, perms}
	}
	return []string{timestamp, event.Type.String(), event.Name, meta.Kind.String(), size, meta.Owner, perms}
}

// CSVSink appends one row per event to a CSV file. Every row is flushed and
// synced before Record returns.
type CSVSink struct {
	mu     sync.Mutex
	path   string
	format Format
	file   *os.File
	writer *csv.Writer
	closed bool
}

// BootstrapResult reports what OpenCSV had to create
type BootstrapResult struct {
	CreatedDir  bool
	CreatedFile bool
}

// OpenCSV opens path for appending, creating its parent directory and
// writing the header row when the file does not exist yet.
func OpenCSV(path string, format Format) (*CSVSink, BootstrapResult, error) {
	var result BootstrapResult

	pu := common.NewPathUtils()
	if err := pu.ValidatePath(path); err != nil {
		return nil, result, fmt.Errorf("invalid event log path: %w", err)
	}

	created, err := pu.EnsureDirectory(filepath.Dir(path))
	if err != nil {
		return nil, result, err
	}
	result.CreatedDir = created

	_, err = os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.CreatedFile = true
	case err != nil:
		return nil, result, fmt.Errorf("failed to access event log %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, result, fmt.Errorf("failed to open event log %s: %w", path, err)
	}

	s := &CSVSink{
		path:   path,
		format: format,
		file:   file,
		writer: csv.NewWriter(file),
	}

	if result.CreatedFile {
		if err := s.write(format.Header()); err != nil {
			file.Close()
			return nil, result, fmt.Errorf("failed to write event log header: %w", err)
		}
		slog.Debug("Created event log", "path", path, "format", format)
	}

	return s, result, nil
}

// Path returns the file the sink writes to
func (s *CSVSink) Path() string {
	return s.path
}

// Record appends event as one row
func (s *CSVSink) Record(_ context.Context, event watcher.ChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return common.ErrSinkClosed
	}
	if err := s.write(s.format.Row(event)); err != nil {
		return fmt.Errorf("failed to append to event log %s: %w", s.path, err)
	}
	return nil
}

func (s *CSVSink) write(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close closes the underlying file
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
