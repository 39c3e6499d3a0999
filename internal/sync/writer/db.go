package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/feedrelay/internal/feed"
)

const stagingTable = "feedrelay_items_staging"

var itemColumns = []string{
	"sequence", "post_text", "published_at", "published_unix", "permalink", "source_id", "harvested_at",
}

// dbItemWriter is an ItemWriter that persists items to PostgreSQL
type dbItemWriter struct {
	pool  *pgxpool.Pool
	table string
	now   func() time.Time
}

// NewDBItemWriter creates an ItemWriter over table.
// The caller is responsible for closing the pool when done.
func NewDBItemWriter(pool *pgxpool.Pool, table string) (ItemWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbItemWriter{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
		now:   time.Now,
	}, nil
}

// Store copies the batch into a transaction-scoped staging table and moves it
// into the items table in one statement, skipping sequences already present.
func (d *dbItemWriter) Store(ctx context.Context, items []feed.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	createStaging := fmt.Sprintf(
		`CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP`,
		stagingTable, d.table,
	)
	if _, err := tx.Exec(ctx, createStaging); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	harvestedAt := d.now().UTC()
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{
			int64(item.Sequence),
			item.Text,
			item.PublishedAt,
			item.PublishedUnix,
			item.Permalink,
			item.SourceID,
			harvestedAt,
		})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stagingTable}, itemColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to copy items: %w", err)
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s SELECT * FROM %s ON CONFLICT (sequence) DO NOTHING`,
		d.table, stagingTable,
	)
	tag, err := tx.Exec(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to insert items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}

	if skipped := int64(len(items)) - tag.RowsAffected(); skipped > 0 {
		slog.Warn("Skipped items that were already stored", "skipped", skipped, "batch", len(items))
	}
	return nil
}
