package watcher

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
)

// rawStat is the platform independent subset of lstat results
type rawStat struct {
	mode     os.FileMode
	size     int64
	modTime  time.Time
	uid      uint32
	gid      uint32
	hasOwner bool
}

// Extractor implements MetadataExtractor over lstat and an IdentityResolver
type Extractor struct {
	resolver IdentityResolver
	lstat    func(path string) (rawStat, error)
	stat     func(path string) (rawStat, error)
}

// NewExtractor creates an extractor resolving owners with resolver
func NewExtractor(resolver IdentityResolver) *Extractor {
	return &Extractor{
		resolver: resolver,
		lstat:    lstat,
		stat:     stat,
	}
}

// Extract returns the metadata of path. Errors are *common.EntryError values
// classified as ErrNotFound, ErrIdentityResolution or ErrStat.
//
// The kind comes from the entry itself; every other field of a symbolic link
// describes its target. A dangling link fails with ErrNotFound.
func (e *Extractor) Extract(path string) (EntryMetadata, error) {
	name := filepath.Base(path)

	st, err := e.lstat(path)
	if err != nil {
		return EntryMetadata{}, common.NewEntryError(name, "lstat", common.ClassifyStatError(err), err)
	}

	kind := classify(st.mode)
	if kind == SymbolicLink {
		if st, err = e.stat(path); err != nil {
			return EntryMetadata{}, common.NewEntryError(name, "stat", common.ClassifyStatError(err), err)
		}
	}

	var owner, group string
	if st.hasOwner {
		if owner, err = e.resolver.UserName(st.uid); err != nil {
			return EntryMetadata{}, common.NewEntryError(name, "lookup-user", common.ErrIdentityResolution, err)
		}
		if group, err = e.resolver.GroupName(st.gid); err != nil {
			return EntryMetadata{}, common.NewEntryError(name, "lookup-group", common.ErrIdentityResolution, err)
		}
	}

	size := st.size
	if size < 0 {
		size = 0
	}

	return NewEntryMetadata(kind, uint64(size), owner, group, st.mode, st.modTime), nil
}

// classify checks for a symbolic link before a directory, so a link to a
// directory is reported as a link.
func classify(mode os.FileMode) EntryKind {
	if mode&os.ModeSymlink != 0 {
		return SymbolicLink
	}
	if mode.IsDir() {
		return Directory
	}
	return RegularFile
}
