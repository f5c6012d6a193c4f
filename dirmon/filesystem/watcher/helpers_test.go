package watcher

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
)

// fakeLister returns a fixed listing, or err when set
type fakeLister struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (l *fakeLister) set(names ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = names
	l.err = nil
}

func (l *fakeLister) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *fakeLister) List(string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return append([]string(nil), l.names...), nil
}

// fakeExtractor serves metadata by entry name
type fakeExtractor struct {
	mu      sync.Mutex
	entries map[string]EntryMetadata
	errs    map[string]error
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		entries: make(map[string]EntryMetadata),
		errs:    make(map[string]error),
	}
}

func (e *fakeExtractor) put(name string, meta EntryMetadata) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[name] = meta
	delete(e.errs, name)
}

func (e *fakeExtractor) failWith(name string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs[name] = err
}

func (e *fakeExtractor) Extract(path string) (EntryMetadata, error) {
	name := filepath.Base(path)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err, ok := e.errs[name]; ok {
		return EntryMetadata{}, err
	}
	meta, ok := e.entries[name]
	if !ok {
		return EntryMetadata{}, common.NewEntryError(name, "lstat", common.ErrNotFound, fs.ErrNotExist)
	}
	return meta, nil
}

// fakeResolver resolves every id to fixed names unless told to fail
type fakeResolver struct {
	user, group string
	failUser    bool
}

func (r fakeResolver) UserName(uint32) (string, error) {
	if r.failUser {
		return "", errors.New("unknown userid")
	}
	return r.user, nil
}

func (r fakeResolver) GroupName(uint32) (string, error) {
	return r.group, nil
}

// recordingSink keeps every recorded event
type recordingSink struct {
	mu     sync.Mutex
	events []ChangeEvent
	err    error
	closed bool
}

func (s *recordingSink) Record(_ context.Context, event ChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) recorded() []ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChangeEvent(nil), s.events...)
}

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fileMeta(size uint64, owner string) EntryMetadata {
	return NewEntryMetadata(RegularFile, size, owner, "staff", 0o644, testTime)
}

func eventSummary(events []ChangeEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type.String() + " " + e.Name
	}
	return out
}
