package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoSync is reported until the first sync has finished.
var ErrNoSync = errors.New("no sync has completed yet")

// SyncTracker remembers the outcome of the most recent sync for readiness.
type SyncTracker struct {
	mu          sync.RWMutex
	lastErr     error
	lastAttempt time.Time
	lastSuccess time.Time
	now         func() time.Time
}

// NewSyncTracker creates an empty tracker.
func NewSyncTracker() *SyncTracker {
	return &SyncTracker{now: time.Now}
}

// Record stores the outcome of a sync.
func (t *SyncTracker) Record(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAttempt = t.now()
	t.lastErr = err
	if err == nil {
		t.lastSuccess = t.lastAttempt
	}
}

// Ready is a Checker that fails until a sync succeeds and whenever the
// latest sync failed.
func (t *SyncTracker) Ready(_ context.Context) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.lastAttempt.IsZero() {
		return ErrNoSync
	}
	if t.lastErr != nil {
		return fmt.Errorf("last sync failed: %w", t.lastErr)
	}
	return nil
}

// Stale returns a DegradedChecker reporting when no sync has succeeded
// within maxAge.
func (t *SyncTracker) Stale(maxAge time.Duration) DegradedChecker {
	return func(_ context.Context) (bool, string) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		if t.lastSuccess.IsZero() {
			return false, ""
		}
		if age := t.now().Sub(t.lastSuccess); age > maxAge {
			return true, fmt.Sprintf("last successful sync was %s ago", age.Round(time.Second))
		}
		return false, ""
	}
}
