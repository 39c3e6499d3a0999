package state

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/feedrelay/internal/config"
)

// NewCheckpointStore creates the CheckpointStore for the configured storage
// type. pool must not be nil for database storage.
func NewCheckpointStore(cfg *config.Config, pool *pgxpool.Pool) (CheckpointStore, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewDBCheckpointStore(pool, cfg.Database.GetCollections().Checkpoint), nil
	case config.StorageTypeFile:
		return NewFileCheckpointStore(cfg.Storage.GetDataDir()), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.GetStorageType())
	}
}
