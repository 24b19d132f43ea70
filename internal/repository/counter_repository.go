package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const inquiryCounterID = "inquiry"

// CounterRepository allocates human-facing sequence numbers.
type CounterRepository interface {
	NextSequence(ctx context.Context) (int64, error)
}

type counterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository instantiates repository.
func NewCounterRepository(pool *pgxpool.Pool) CounterRepository {
	return &counterRepository{pool: pool}
}

// NextSequence performs the read-modify-write against the shared counter row
// inside one transaction and returns the new value. The upsert takes a row
// lock, so concurrent callers are serialized and never observe the same
// number. An absent counter row counts as zero.
func (r *counterRepository) NextSequence(ctx context.Context) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var next int64
	if err := tx.QueryRow(ctx, `
        INSERT INTO sequence_counters (id, last_value) VALUES ($1, 1)
        ON CONFLICT (id) DO UPDATE SET last_value = sequence_counters.last_value + 1
        RETURNING last_value`,
		inquiryCounterID,
	).Scan(&next); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return next, nil
}
