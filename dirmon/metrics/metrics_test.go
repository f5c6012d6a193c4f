package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/watcher"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Ticks(t *testing.T) {
	r := NewRecorder()

	r.ObserveTick(time.Millisecond, nil)
	r.ObserveTick(time.Millisecond, nil)
	r.ObserveTick(time.Millisecond, fmt.Errorf("%w: gone", common.ErrDirectoryUnavailable))
	r.ObserveTick(time.Millisecond, context.Canceled)
	r.ObserveTick(time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ticks.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ticks.WithLabelValues("unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ticks.WithLabelValues("cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ticks.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.tickDuration))
}

func TestRecorder_EventsAndErrors(t *testing.T) {
	r := NewRecorder()

	r.ObserveEvent(watcher.ChangeEvent{Type: watcher.EventCreated})
	r.ObserveEvent(watcher.ChangeEvent{Type: watcher.EventCreated})
	r.ObserveEvent(watcher.ChangeEvent{Type: watcher.EventDeleted})
	r.ObserveEntryError(common.NewEntryError("a", "lookup-user", common.ErrIdentityResolution, errors.New("x")))
	r.SetSnapshotSize(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("CREATED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.events.WithLabelValues("DELETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.entryErrors.WithLabelValues("identity")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.snapshotSize))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveEvent(watcher.ChangeEvent{Type: watcher.EventModified})

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `dirmon_events_total{event="MODIFIED"} 1`))
	assert.Contains(t, string(body), "dirmon_snapshot_entries")
}

func TestRecorder_ServeStopsOnCancel(t *testing.T) {
	r := NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics endpoint did not stop")
	}
}
