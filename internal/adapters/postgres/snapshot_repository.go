package postgres

import (
	"context"
	"fmt"
	"simex/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepository serves snapshots stored in fx_snapshots, one row per
// record, grouped by snapshot name.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func (r *SnapshotRepository) Index(ctx context.Context) ([]string, error) {
	const q = `select distinct name from fx_snapshots order by name;`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot index: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot index: %w", err)
	}
	return names, nil
}

func (r *SnapshotRepository) Load(ctx context.Context, name string) ([]domain.RateRecord, error) {
	const q = `select pair, rate from fx_snapshots where name = $1 order by id;`

	rows, err := r.pool.Query(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot %q: %w", name, err)
	}
	defer rows.Close()

	records := make([]domain.RateRecord, 0, 64)
	for rows.Next() {
		var rec domain.RateRecord
		if err = rows.Scan(&rec.Pair, &rec.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot %q: %w", name, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot %q: %w", name, err)
	}
	return records, nil
}

// Insert stores a snapshot in one transaction: either all of its records are
// written or none. Used to seed history.
func (r *SnapshotRepository) Insert(ctx context.Context, name string, records []domain.RateRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`insert into fx_snapshots (name, pair, rate) values ($1, $2, $3)`, name, rec.Pair, rec.Rate)
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %q: %w", name, err)
	}
	return nil
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}
