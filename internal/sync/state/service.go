// Package state persists the sync checkpoint: the highest feed sequence that
// has been delivered to every subscriber and stored.
package state

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCheckpointNotSeeded is returned when no checkpoint has been stored yet.
	// The sync cycle cannot pick a boundary without one.
	ErrCheckpointNotSeeded = errors.New("checkpoint has not been seeded")

	// ErrCheckpointExists is returned by Seed when a checkpoint is already
	// stored and force is false.
	ErrCheckpointExists = errors.New("checkpoint is already seeded")
)

// CheckpointFileName is the file used by the file-backed store.
const CheckpointFileName = "checkpoint.json"

// CheckpointStore holds the single "last processed sequence" record.
//
//go:generate mockgen -destination=mocks/mock_checkpoint_store.go -package=mocks github.com/stacklok/feedrelay/internal/sync/state CheckpointStore
type CheckpointStore interface {
	// Get returns the stored sequence or ErrCheckpointNotSeeded.
	Get(ctx context.Context) (uint32, error)
	// Set overwrites the stored sequence. The record must already exist.
	Set(ctx context.Context, sequence uint32) error
	// Seed creates the record. An existing record is only replaced when force
	// is true.
	Seed(ctx context.Context, sequence uint32, force bool) error
}

// checkpointRecord is the persisted shape of the checkpoint.
type checkpointRecord struct {
	LastSequence uint32    `json:"last_sequence"`
	UpdatedAt    time.Time `json:"updated_at"`
}
