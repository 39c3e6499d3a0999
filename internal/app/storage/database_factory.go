package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/db"
	"github.com/stacklok/feedrelay/internal/status"
	"github.com/stacklok/feedrelay/internal/subscriptions"
	"github.com/stacklok/feedrelay/internal/sync/state"
	"github.com/stacklok/feedrelay/internal/sync/writer"
)

// DatabaseFactory creates database-backed storage components.
// All components created by this factory use PostgreSQL for persistence.
type DatabaseFactory struct {
	config   *config.Config
	pool     *pgxpool.Pool
	ownsPool bool
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*DatabaseFactory)

// WithPool makes the factory use an existing pool instead of opening one.
// The caller keeps ownership: Cleanup does not close it.
func WithPool(pool *pgxpool.Pool) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.pool = pool
	}
}

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database
// and makes sure the tables exist.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	factory := &DatabaseFactory{config: cfg}
	for _, opt := range opts {
		opt(factory)
	}

	if factory.pool == nil {
		slog.Info("Creating database-backed storage factory")

		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		factory.pool = pool
		factory.ownsPool = true
	}

	return factory, nil
}

// CreateCheckpointStore creates a database-backed checkpoint store.
func (d *DatabaseFactory) CreateCheckpointStore(_ context.Context) (state.CheckpointStore, error) {
	slog.Debug("Creating database-backed checkpoint store")
	return state.NewCheckpointStore(d.config, d.pool)
}

// CreateItemWriter creates a database-backed item writer.
func (d *DatabaseFactory) CreateItemWriter(_ context.Context) (writer.ItemWriter, error) {
	slog.Debug("Creating database-backed item writer")
	return writer.NewItemWriter(d.config, d.pool)
}

// CreateRegistry creates a database-backed subscription registry.
func (d *DatabaseFactory) CreateRegistry(_ context.Context) (subscriptions.Registry, error) {
	slog.Debug("Creating database-backed subscription registry")
	return subscriptions.NewRegistry(d.config, d.pool)
}

// CreateStatusPersistence returns nil: the sync status is kept in memory
// when the relay runs against a database.
func (*DatabaseFactory) CreateStatusPersistence() status.StatusPersistence {
	return nil
}

// Ping checks the database connection.
func (d *DatabaseFactory) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Cleanup releases resources held by the database factory.
// This closes the database connection pool when the factory opened it.
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil && d.ownsPool {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
