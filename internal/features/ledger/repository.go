// Package ledger: repository.go performs the balance SQL. Every mutation
// is a single statement or a short transaction; the database serializes
// concurrent writers; in-process locking would not help anyway, the bot
// may run as several workers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terajutt/INSTA-UNC/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Points returns the current balance.
func (r *Repository) Points(ctx context.Context, userID int64) (int, error) {
	var points int
	err := r.db.QueryRow(ctx,
		`SELECT points FROM users WHERE user_id = $1`, userID,
	).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("read points: %w", err)
	}
	return points, nil
}

// AdjustPoints adds delta (possibly negative) to the balance. A debit
// that would take the balance below zero fails with
// common.ErrInsufficientPoints and leaves the row untouched. The row lock
// makes concurrent adjustments on one account serialize cleanly.
func (r *Repository) AdjustPoints(ctx context.Context, userID int64, delta int) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin adjust tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx,
		`SELECT points FROM users WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("lock user row: %w", err)
	}

	if current+delta < 0 {
		return 0, common.ErrInsufficientPoints
	}

	var balance int
	err = tx.QueryRow(ctx, `
		UPDATE users SET points = points + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING points
	`, userID, delta).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("adjust points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit adjust tx: %w", err)
	}
	return balance, nil
}

// PromoteIfEligible flips the VIP flag once the referral count reaches
// threshold. Idempotent: already-VIP rows are untouched and no error is
// returned.
func (r *Repository) PromoteIfEligible(ctx context.Context, userID int64, threshold int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET vip = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND vip = FALSE AND referrals >= $2
	`, userID, threshold)
	if err != nil {
		return fmt.Errorf("promote user: %w", err)
	}
	return nil
}

// LastDaily returns the previous claim timestamp (nil = never claimed).
func (r *Repository) LastDaily(ctx context.Context, userID int64) (*time.Time, error) {
	var last *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT last_daily FROM users WHERE user_id = $1`, userID,
	).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("read last_daily: %w", err)
	}
	return last, nil
}

// ClaimDaily re-checks eligibility, credits the VIP or standard reward
// and stamps last_daily: all in one conditional UPDATE. Two concurrent
// claims cannot both pass the WHERE clause, so double-crediting is
// impossible without any lock held by us.
func (r *Repository) ClaimDaily(ctx context.Context, userID int64, standard, vip int) (*ClaimResult, error) {
	var res ClaimResult
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET points = points + CASE WHEN vip THEN $3 ELSE $2 END,
		    last_daily = NOW(),
		    updated_at = NOW()
		WHERE user_id = $1
		  AND (last_daily IS NULL OR last_daily <= NOW() - INTERVAL '24 hours')
		RETURNING CASE WHEN vip THEN $3 ELSE $2 END, points
	`, userID, standard, vip).Scan(&res.Awarded, &res.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the user does not exist or the cooldown has not
			// elapsed; the caller distinguishes via LastDaily.
			return nil, common.ErrDailyNotReady
		}
		return nil, fmt.Errorf("claim daily: %w", err)
	}
	return &res, nil
}
