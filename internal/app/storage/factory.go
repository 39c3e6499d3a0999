// Package storage provides factory functions for creating storage-dependent components.
// It implements the Abstract Factory pattern to ensure related components (checkpoint
// store, item writer, subscription registry) are created with compatible storage backends.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/status"
	"github.com/stacklok/feedrelay/internal/subscriptions"
	"github.com/stacklok/feedrelay/internal/sync/state"
	"github.com/stacklok/feedrelay/internal/sync/writer"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
// Implementations ensure all components are compatible with each other
// (e.g., all use database or all use file storage).
//
// It also manages the lifecycle of storage resources (connection pools,
// data directory locks).
type Factory interface {
	// CreateCheckpointStore creates the store holding the last processed sequence.
	CreateCheckpointStore(ctx context.Context) (state.CheckpointStore, error)

	// CreateItemWriter creates the append-only store for delivered items.
	CreateItemWriter(ctx context.Context) (writer.ItemWriter, error)

	// CreateRegistry creates the subscription registry.
	CreateRegistry(ctx context.Context) (subscriptions.Registry, error)

	// CreateStatusPersistence returns where the last sync status is kept
	// across restarts, or nil when it is only held in memory.
	CreateStatusPersistence() status.StatusPersistence

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Cleanup releases any resources held by this factory.
	// Should be called when the application shuts down.
	Cleanup()
}

// NewStorageFactory creates a storage factory based on the configured storage type.
// Returns a FileFactory for file-based storage or a DatabaseFactory for database storage.
func NewStorageFactory(ctx context.Context, cfg *config.Config) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg)
	case config.StorageTypeFile:
		return NewFileFactory(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}
