package app

import (
	"context"

	"github.com/stacklok/feedrelay/internal/app/storage"
	"github.com/stacklok/feedrelay/internal/status"
	"github.com/stacklok/feedrelay/internal/sync/coordinator"
)

// Transport is the chat connection the relay delivers through and takes
// commands from. *bot.Bot implements it.
type Transport interface {
	Open(ctx context.Context) error
	Close() error
}

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator runs the synchronization cycle in the background
	SyncCoordinator coordinator.Coordinator

	// StatusTracker holds the outcome of the last cycle
	StatusTracker *status.Tracker

	// Transport is the chat session, opened before the coordinator starts
	Transport Transport

	// StorageFactory owns the storage resources
	StorageFactory storage.Factory
}
