package common

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
)

// Error kinds produced while observing the monitored directory
var (
	ErrNotFound             = errors.New("entry not found")
	ErrIdentityResolution   = errors.New("owner or group cannot be resolved")
	ErrStat                 = errors.New("stat failed")
	ErrDirectoryUnavailable = errors.New("monitored directory unavailable")
	ErrSinkClosed           = errors.New("event sink is closed")
	ErrPathEmpty            = errors.New("path cannot be empty")
)

// EntryError describes a failure to observe a single directory entry.
type EntryError struct {
	Name string // entry name within the monitored directory
	Op   string // "lstat", "stat", "lookup-user", "lookup-group"
	Kind error  // one of ErrNotFound, ErrIdentityResolution, ErrStat
	Err  error  // underlying cause
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Name, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *EntryError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewEntryError wraps err, classifying it as kind.
func NewEntryError(name, op string, kind, err error) *EntryError {
	return &EntryError{Name: name, Op: op, Kind: kind, Err: err}
}

// ClassifyStatError maps an lstat failure to ErrNotFound or ErrStat.
func ClassifyStatError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return ErrStat
}

// IsTransient reports whether err only means the entry vanished between listing and stat.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFatal reports whether err makes the current tick unusable.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDirectoryUnavailable)
}

// ErrorKind returns a short label for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIdentityResolution):
		return "identity"
	case errors.Is(err, ErrStat):
		return "stat"
	case errors.Is(err, ErrDirectoryUnavailable):
		return "directory_unavailable"
	default:
		return "other"
	}
}

// ErrorUtils provides common error handling utilities
type ErrorUtils struct{}

// NewErrorUtils creates a new ErrorUtils instance
func NewErrorUtils() *ErrorUtils {
	return &ErrorUtils{}
}

// WrapError wraps an error with additional context
func (eu *ErrorUtils) WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", context, err)
}

// LogAndWrapError logs an error and wraps it with context
func (eu *ErrorUtils) LogAndWrapError(err error, level slog.Level, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	context := fmt.Sprintf(message, args...)

	switch level {
	case slog.LevelDebug:
		slog.Debug(context, "error", err)
	case slog.LevelInfo:
		slog.Info(context, "error", err)
	case slog.LevelWarn:
		slog.Warn(context, "error", err)
	case slog.LevelError:
		slog.Error(context, "error", err)
	}

	return fmt.Errorf("%s: %w", context, err)
}
