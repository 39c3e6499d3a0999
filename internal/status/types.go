// Package status tracks the outcome of synchronization cycles.
package status

import "time"

// SyncPhase represents the current phase of a synchronization cycle
type SyncPhase string

const (
	// SyncPhaseSyncing means a cycle is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last cycle completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last cycle failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the state of feed synchronization
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase,omitempty"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty"`

	// RunID identifies the most recent cycle
	RunID string `json:"runId,omitempty"`

	// Stage is the failing stage of the last failed cycle
	Stage string `json:"stage,omitempty"`

	// LastAttempt is the timestamp of the last cycle attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of attempts since the last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful cycle
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// Checkpoint is the checkpoint after the last successful cycle
	Checkpoint uint32 `json:"checkpoint"`

	// ItemCount is the number of items harvested by the last successful cycle
	ItemCount int `json:"itemCount"`

	// MessagesSent is the number of messages delivered by the last successful cycle
	MessagesSent int `json:"messagesSent"`
}
