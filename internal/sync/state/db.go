package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// checkpointRowID is the id of the only row in the checkpoint table.
const checkpointRowID = 1

type dbCheckpointStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewDBCheckpointStore stores the checkpoint as the single row of table.
func NewDBCheckpointStore(pool *pgxpool.Pool, table string) CheckpointStore {
	return &dbCheckpointStore{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
	}
}

func (d *dbCheckpointStore) Get(ctx context.Context) (uint32, error) {
	query := fmt.Sprintf(`SELECT last_sequence FROM %s WHERE id = $1`, d.table)

	var seq int64
	if err := d.pool.QueryRow(ctx, query, checkpointRowID).Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCheckpointNotSeeded
		}
		return 0, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return uint32(seq), nil
}

func (d *dbCheckpointStore) Set(ctx context.Context, sequence uint32) error {
	query := fmt.Sprintf(`UPDATE %s SET last_sequence = $2, updated_at = now() WHERE id = $1`, d.table)

	tag, err := d.pool.Exec(ctx, query, checkpointRowID, int64(sequence))
	if err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCheckpointNotSeeded
	}
	return nil
}

func (d *dbCheckpointStore) Seed(ctx context.Context, sequence uint32, force bool) error {
	conflict := `DO NOTHING`
	if force {
		conflict = `DO UPDATE SET last_sequence = EXCLUDED.last_sequence, updated_at = EXCLUDED.updated_at`
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, last_sequence, updated_at) VALUES ($1, $2, now()) ON CONFLICT (id) %s`,
		d.table, conflict,
	)

	tag, err := d.pool.Exec(ctx, query, checkpointRowID, int64(sequence))
	if err != nil {
		return fmt.Errorf("failed to seed checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCheckpointExists
	}
	return nil
}
