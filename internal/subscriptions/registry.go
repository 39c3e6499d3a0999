// Package subscriptions keeps the set of chat channels that receive new posts.
package subscriptions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/feedrelay/internal/config"
)

//go:generate mockgen -destination=mocks/mock_registry.go -package=mocks -source=registry.go Registry

// Registry is a set of destination IDs. Add and Remove are idempotent and
// atomic per destination, so they may interleave freely with List.
type Registry interface {
	// Add inserts id if absent and reports whether it was inserted.
	Add(ctx context.Context, id string) (bool, error)
	// Remove deletes id if present and reports whether it was deleted.
	Remove(ctx context.Context, id string) (bool, error)
	// List returns every destination in subscription order.
	List(ctx context.Context) ([]string, error)
}

// NewRegistry creates the Registry for the configured storage type.
// pool must not be nil for database storage.
func NewRegistry(cfg *config.Config, pool *pgxpool.Pool) (Registry, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewDBRegistry(pool, cfg.Database.GetCollections().Subscriptions), nil
	case config.StorageTypeFile:
		return NewFileRegistry(cfg.Storage.GetDataDir()), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.GetStorageType())
	}
}
