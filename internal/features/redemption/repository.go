// Package redemption: repository.go runs the whole redeem as one
// database transaction: lock the user row, check the cost, pull an item
// out of the pool, debit, append the log row. Any failure rolls the lot
// back, so a debited account without an item (or a vanished item without
// a debit) cannot exist.
package redemption

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terajutt/INSTA-UNC/internal/common"
	"github.com/terajutt/INSTA-UNC/internal/features/inventory"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Redeem performs the full exchange. costStandard/costVIP is the price
// table; the user's VIP flag picks the cost and the preferred tier.
func (r *Repository) Redeem(ctx context.Context, userID int64, costStandard, costVIP int) (*Result, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin redeem tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var points int
	var vip bool
	err = tx.QueryRow(ctx,
		`SELECT points, vip FROM users WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&points, &vip)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("lock user row: %w", err)
	}

	cost := costStandard
	tier := inventory.TierStandard
	if vip {
		cost = costVIP
		tier = inventory.TierPremium
	}

	if points < cost {
		return nil, common.ErrInsufficientPoints
	}

	// Allocation before the debit: an empty pool must cost nothing.
	item, err := inventory.AllocateIn(ctx, tx, tier)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, common.ErrOutOfStock
	}

	var balance int
	err = tx.QueryRow(ctx, `
		UPDATE users SET points = points - $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING points
	`, userID, cost).Scan(&balance)
	if err != nil {
		return nil, fmt.Errorf("debit points: %w", err)
	}

	var recordID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO redemptions (user_id, account, cost) VALUES ($1, $2, $3)
		RETURNING id
	`, userID, item.Payload, cost).Scan(&recordID); err != nil {
		return nil, fmt.Errorf("append redemption record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit redeem tx: %w", err)
	}

	return &Result{RecordID: recordID, Payload: item.Payload, Cost: cost, Balance: balance}, nil
}

// History returns the user's redemptions, most recent first.
func (r *Repository) History(ctx context.Context, userID int64) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, account, cost, created_at
		FROM redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query redemptions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Account, &rec.Cost, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read redemptions: %w", err)
	}
	return out, nil
}

// FindLatestByPayload resolves the most recent redemption of a payload by
// a user. Used when a report is filed, to pin the dispute to a concrete
// redemption instead of a payload string match at refund time.
func (r *Repository) FindLatestByPayload(ctx context.Context, userID int64, payload string) (*Record, error) {
	var rec Record
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, account, cost, created_at
		FROM redemptions
		WHERE user_id = $1 AND account = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID, payload).Scan(&rec.ID, &rec.UserID, &rec.Account, &rec.Cost, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find redemption by payload: %w", err)
	}
	return &rec, nil
}

// GetByID returns one redemption record, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Record, error) {
	var rec Record
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, account, cost, created_at
		FROM redemptions
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.UserID, &rec.Account, &rec.Cost, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read redemption %d: %w", id, err)
	}
	return &rec, nil
}

// Latest returns the user's most recent redemption, or nil.
func (r *Repository) Latest(ctx context.Context, userID int64) (*Record, error) {
	var rec Record
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, account, cost, created_at
		FROM redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID).Scan(&rec.ID, &rec.UserID, &rec.Account, &rec.Cost, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read latest redemption: %w", err)
	}
	return &rec, nil
}

// Count returns the all-time redemption total for the admin dashboard.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM redemptions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}
