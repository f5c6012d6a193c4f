package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/watcher"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *EventStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "nested", "events.db")
	store, err := OpenEventStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// TestEventStoreIntegration tests the EventStore against a local libsql file
func TestEventStoreIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	assert.NotEqual(t, uuid.Nil, store.RunID())

	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	detected := time.Date(2024, 1, 2, 3, 4, 10, 0, time.UTC)
	meta := watcher.NewEntryMetadata(watcher.SymbolicLink, 12, "alice", "staff", 0o777, modified)

	events := []watcher.ChangeEvent{
		{Type: watcher.EventCreated, Name: "a", Metadata: meta, DetectedAt: detected},
		{Type: watcher.EventModified, Name: "a", Metadata: meta, DetectedAt: detected},
		{Type: watcher.EventCreated, Name: "b", Metadata: meta, DetectedAt: detected},
		{Type: watcher.EventDeleted, Name: "a", Metadata: meta, DetectedAt: detected},
	}
	for _, event := range events {
		require.NoError(t, store.Record(ctx, event))
	}

	t.Run("Recent", func(t *testing.T) {
		recent, err := store.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)

		latest := recent[0]
		assert.Equal(t, "DELETED", latest.Event)
		assert.Equal(t, "a", latest.Name)
		assert.Equal(t, "SymbolicLink", latest.Kind)
		assert.Equal(t, uint64(12), latest.Size)
		assert.Equal(t, "alice", latest.Owner)
		assert.Equal(t, "staff", latest.Group)
		assert.Equal(t, "777", latest.Permissions)
		assert.Equal(t, store.RunID(), latest.RunID)
		assert.True(t, detected.Equal(latest.DetectedAt))
		assert.Equal(t, modified.Unix(), latest.ModifiedAt.Unix())

		assert.Equal(t, "b", recent[1].Name)
	})

	t.Run("CountByType", func(t *testing.T) {
		counts, err := store.CountByType(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"CREATED": 2, "MODIFIED": 1, "DELETED": 1}, counts)
	})
}

func TestEventStore_SeparateRuns(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()
	event := watcher.ChangeEvent{Type: watcher.EventCreated, Name: "a", DetectedAt: time.Now()}

	first, err := OpenEventStore(dsn)
	require.NoError(t, err)
	require.NoError(t, first.Record(ctx, event))
	require.NoError(t, first.Close())

	second, err := OpenEventStore(dsn)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Record(ctx, event))

	assert.NotEqual(t, first.RunID(), second.RunID())
	recent, err := second.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.RunID(), recent[0].RunID)
	assert.Equal(t, first.RunID(), recent[1].RunID)
}

func TestEventStore_RecordAfterClose(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	err := store.Record(context.Background(), watcher.ChangeEvent{Name: "late"})
	assert.ErrorIs(t, err, common.ErrSinkClosed)
}

func TestConnectToDB_CreatesParentDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	db, err := ConnectToDB("file:" + filepath.Join(dir, "x.db"))
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = ConnectToDB("")
	assert.Error(t, err)
}
