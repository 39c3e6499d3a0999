package status

import (
	"context"
	"log/slog"
	"sync"
)

// Tracker holds the current sync status in memory and optionally persists
// every change. It is safe for concurrent use.
type Tracker struct {
	mu          sync.RWMutex
	current     SyncStatus
	persistence StatusPersistence
}

// NewTracker creates a Tracker. persistence may be nil, in which case the
// status lives only for the process lifetime.
func NewTracker(persistence StatusPersistence) *Tracker {
	return &Tracker{persistence: persistence}
}

// Load restores the last saved status. A status left in the Syncing phase
// belongs to a process that died mid-cycle and is reported as Failed.
func (t *Tracker) Load(ctx context.Context) error {
	if t.persistence == nil {
		return nil
	}

	loaded, err := t.persistence.LoadStatus(ctx)
	if err != nil {
		return err
	}
	if loaded.Phase == SyncPhaseSyncing {
		loaded.Phase = SyncPhaseFailed
		loaded.Message = "Previous sync was interrupted"
	}

	t.mu.Lock()
	t.current = *loaded
	t.mu.Unlock()
	return nil
}

// Get returns a copy of the current status
func (t *Tracker) Get() SyncStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Update applies fn to the current status and persists the result.
// Persistence failures are logged and do not fail the update.
func (t *Tracker) Update(ctx context.Context, fn func(*SyncStatus)) {
	t.mu.Lock()
	fn(&t.current)
	snapshot := t.current
	t.mu.Unlock()

	if t.persistence == nil {
		return
	}
	if err := t.persistence.SaveStatus(ctx, &snapshot); err != nil {
		slog.Error("Error saving sync status", "error", err)
	}
}
