package common

import (
	"sync"
	"time"
)

// BaseMetrics provides common fields used across different metrics types
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	Mu              sync.RWMutex
}

// updateLocked requires bm.Mu to be held
func (bm *BaseMetrics) updateLocked(success bool) {
	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
}

// baseLocked returns the common metrics as a map; requires bm.Mu to be held
func (bm *BaseMetrics) baseLocked() map[string]interface{} {
	return map[string]interface{}{
		"total_operations": bm.TotalOperations,
		"successful_ops":   bm.SuccessfulOps,
		"failed_ops":       bm.FailedOps,
		"last_operation":   bm.LastOperation,
	}
}

// TickMetrics tracks in-process statistics for polling ticks
type TickMetrics struct {
	BaseMetrics
	EventCounts map[string]int64 // event label -> count
	EntryErrors int64
	AverageTime time.Duration
}

// NewTickMetrics creates an empty TickMetrics
func NewTickMetrics() *TickMetrics {
	return &TickMetrics{EventCounts: make(map[string]int64)}
}

// UpdateMetrics records one finished tick. All fields change under a single
// lock so the rolling average always matches TotalOperations.
func (tm *TickMetrics) UpdateMetrics(start time.Time, success bool, events map[string]int, entryErrors int) {
	duration := time.Since(start)

	tm.Mu.Lock()
	defer tm.Mu.Unlock()

	tm.updateLocked(success)
	for label, n := range events {
		tm.EventCounts[label] += int64(n)
	}
	tm.EntryErrors += int64(entryErrors)

	// Rolling average over all ticks
	if tm.TotalOperations == 1 {
		tm.AverageTime = duration
	} else {
		tm.AverageTime = (tm.AverageTime*time.Duration(tm.TotalOperations-1) + duration) / time.Duration(tm.TotalOperations)
	}
}

// GetMetrics returns tick metrics as a map
func (tm *TickMetrics) GetMetrics() map[string]interface{} {
	tm.Mu.RLock()
	defer tm.Mu.RUnlock()

	metrics := tm.baseLocked()
	events := make(map[string]int64, len(tm.EventCounts))
	for label, n := range tm.EventCounts {
		events[label] = n
	}
	metrics["events"] = events
	metrics["entry_errors"] = tm.EntryErrors
	metrics["average_time"] = tm.AverageTime
	return metrics
}
