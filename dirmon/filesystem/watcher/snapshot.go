package watcher

import (
	"github.com/armon/go-radix"
)

// Snapshot maps entry names to their metadata as of one tick.
// Iteration is in lexical name order. A Snapshot is built once per tick and
// not modified after it replaces the previous one.
type Snapshot struct {
	tree *radix.Tree
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{tree: radix.New()}
}

// Put stores meta under name, replacing any previous record
func (s *Snapshot) Put(name string, meta EntryMetadata) {
	s.tree.Insert(name, meta)
}

// Get returns the record stored under name
func (s *Snapshot) Get(name string) (EntryMetadata, bool) {
	v, ok := s.tree.Get(name)
	if !ok {
		return EntryMetadata{}, false
	}
	return v.(EntryMetadata), true
}

// Len returns the number of entries
func (s *Snapshot) Len() int {
	return s.tree.Len()
}

// Walk calls fn for every entry in name order until fn returns false
func (s *Snapshot) Walk(fn func(name string, meta EntryMetadata) bool) {
	s.tree.Walk(func(name string, v interface{}) bool {
		return !fn(name, v.(EntryMetadata))
	})
}

// Names returns all entry names in order
func (s *Snapshot) Names() []string {
	names := make([]string, 0, s.Len())
	s.Walk(func(name string, _ EntryMetadata) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Clone returns an independent copy
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	s.Walk(func(name string, meta EntryMetadata) bool {
		c.Put(name, meta)
		return true
	})
	return c
}
