package subscriptions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbRegistry struct {
	pool  *pgxpool.Pool
	table string
}

// NewDBRegistry stores subscriptions as rows of table.
func NewDBRegistry(pool *pgxpool.Pool, table string) Registry {
	return &dbRegistry{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

func (d *dbRegistry) Add(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (destination_id, created_at) VALUES ($1, now()) ON CONFLICT (destination_id) DO NOTHING`,
		d.table,
	)
	tag, err := d.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to add subscription %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (d *dbRegistry) Remove(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE destination_id = $1`, d.table)
	tag, err := d.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove subscription %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (d *dbRegistry) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT destination_id FROM %s ORDER BY created_at, destination_id`, d.table)
	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions: %w", err)
	}
	return ids, nil
}
