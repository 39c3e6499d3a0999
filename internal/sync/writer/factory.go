package writer

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/feedrelay/internal/config"
)

// NewItemWriter creates an ItemWriter based on the configured storage type.
// pool must not be nil for database storage.
func NewItemWriter(cfg *config.Config, pool *pgxpool.Pool) (ItemWriter, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewDBItemWriter(pool, cfg.Database.GetCollections().Items)
	case config.StorageTypeFile:
		return NewFileItemWriter(cfg.Storage.GetDataDir()), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.GetStorageType())
	}
}
