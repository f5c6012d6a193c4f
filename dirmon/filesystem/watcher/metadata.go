package watcher

import (
	"fmt"
	"os"
	"time"

	internal "github.com/ZanzyTHEbar/directory-monitor/dirmon"
)

// EntryKind classifies a directory entry
type EntryKind int

const (
	RegularFile EntryKind = iota
	Directory
	SymbolicLink
)

// String returns the label written to event records
func (k EntryKind) String() string {
	switch k {
	case RegularFile:
		return "RegularFile"
	case Directory:
		return "Directory"
	case SymbolicLink:
		return "SymbolicLink"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// permissionMask keeps the rwx bits plus setuid, setgid and sticky
const permissionMask = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// EntryMetadata is the observable state of one entry at observation time.
// It is a value type; two records are equal iff every field is equal.
type EntryMetadata struct {
	Kind        EntryKind
	Size        uint64
	Owner       string
	Group       string
	Permissions os.FileMode
	ModifiedAt  time.Time // truncated to the second, no monotonic reading
}

// NewEntryMetadata normalizes the permission bits and timestamp of a record
func NewEntryMetadata(kind EntryKind, size uint64, owner, group string, mode os.FileMode, modTime time.Time) EntryMetadata {
	return EntryMetadata{
		Kind:        kind,
		Size:        size,
		Owner:       owner,
		Group:       group,
		Permissions: mode & permissionMask,
		ModifiedAt:  time.Unix(modTime.Unix(), 0),
	}
}

// Equal reports whether every field of m and other is equal
func (m EntryMetadata) Equal(other EntryMetadata) bool {
	return m.Kind == other.Kind &&
		m.Size == other.Size &&
		m.Owner == other.Owner &&
		m.Group == other.Group &&
		m.Permissions == other.Permissions &&
		m.ModifiedAt.Unix() == other.ModifiedAt.Unix()
}

// PermissionString returns the permission bits in octal, e.g. "644" or "4755"
func (m EntryMetadata) PermissionString() string {
	bits := uint32(m.Permissions.Perm())
	if m.Permissions&os.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if m.Permissions&os.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if m.Permissions&os.ModeSticky != 0 {
		bits |= 0o1000
	}
	return fmt.Sprintf("%o", bits)
}

// Timestamp formats ModifiedAt as a local timestamp
func (m EntryMetadata) Timestamp() string {
	return m.ModifiedAt.Local().Format(internal.TimestampLayout)
}
