package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathUtils provides path manipulation utilities used across filesystem packages
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath normalizes a file path for cross-platform compatibility
func (pu *PathUtils) NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// ValidatePath rejects empty paths and paths containing NUL bytes
func (pu *PathUtils) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrPathEmpty
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains invalid characters: %q", path)
	}
	return nil
}

// EnsureDirectory creates path (and parents) if it does not exist.
// It reports whether the directory was created.
func (pu *PathUtils) EnsureDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("path is not a directory: %s", path)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to access directory %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return true, nil
}
