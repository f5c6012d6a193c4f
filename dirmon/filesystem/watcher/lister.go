package watcher

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
)

// DirLister implements DirectoryLister with a single, non-recursive read
type DirLister struct{}

// NewDirLister creates a new DirLister
func NewDirLister() *DirLister {
	return &DirLister{}
}

// List returns the names of the direct children of path in lexical order
func (DirLister) List(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrDirectoryUnavailable, path, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}
