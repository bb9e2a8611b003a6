// Package inventory: repository.go runs the pool SQL. Allocation is a
// single DELETE ... RETURNING over a SKIP LOCKED subselect, so two
// concurrent redemptions can never receive the same row: whichever
// transaction locks the row first takes it, the other skips to the next.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// allocateSQL picks the oldest unlocked row of the wanted tier.
const allocateSQL = `
	DELETE FROM accounts
	WHERE id = (
		SELECT id FROM accounts
		WHERE tier = $1
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, payload, tier, created_at
`

// allocateAnySQL is the fallback when the preferred tier is exhausted.
const allocateAnySQL = `
	DELETE FROM accounts
	WHERE id = (
		SELECT id FROM accounts
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, payload, tier, created_at
`

// querier covers both *pgxpool.Pool and pgx.Tx, so the redemption engine
// can allocate inside its own transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AllocateIn removes and returns one item using the caller's transaction
// (or the pool directly). Preferred tier first, then any tier. A nil item
// with nil error means the pool is empty: not a failure.
func AllocateIn(ctx context.Context, q querier, tier Tier) (*Item, error) {
	item, err := scanItem(q.QueryRow(ctx, allocateSQL, tier))
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}
	return scanItem(q.QueryRow(ctx, allocateAnySQL))
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Payload, &it.Tier, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("allocate item: %w", err)
	}
	return &it, nil
}

// Allocate removes and returns one item outside any caller transaction.
func (r *Repository) Allocate(ctx context.Context, tier Tier) (*Item, error) {
	return AllocateIn(ctx, r.db, tier)
}

// Add inserts one item.
func (r *Repository) Add(ctx context.Context, payload string, tier Tier) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (payload, tier) VALUES ($1, $2)`, payload, tier,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// Count returns the number of items left in the pool.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// CountByTier returns remaining stock per tier.
func (r *Repository) CountByTier(ctx context.Context) (map[Tier]int, error) {
	rows, err := r.db.Query(ctx, `SELECT tier, COUNT(*) FROM accounts GROUP BY tier`)
	if err != nil {
		return nil, fmt.Errorf("count by tier: %w", err)
	}
	defer rows.Close()

	out := make(map[Tier]int)
	for rows.Next() {
		var t Tier
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan tier count: %w", err)
		}
		out[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tier counts: %w", err)
	}
	return out, nil
}
