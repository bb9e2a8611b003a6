// Package users: repository.go runs all SQL against the users table.
// Referral attribution is a single transaction so the count, the point
// credit and the VIP promotion land together or not at all.
package users

import (
	"context"
	"errors"
	"fmt"

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

// Create inserts a new user. Returns false when the user already existed;
// an existing row is left untouched (registration is idempotent).
func (r *Repository) Create(ctx context.Context, userID int64, username string, refBy *int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO users (user_id, username, points, vip, referrals, ref_by)
		VALUES ($1, $2, 0, FALSE, 0, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, username, refBy)
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID returns common.ErrUserNotFound when the row is absent.
func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT user_id, username, points, vip, referrals, last_daily, ref_by,
		       created_at, updated_at
		FROM users
		WHERE user_id = $1
	`
	var u User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&u.UserID, &u.Username, &u.Points, &u.VIP, &u.Referrals,
		&u.LastDaily, &u.RefBy, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("read user %d: %w", userID, err)
	}
	return &u, nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// UpdateUsername refreshes the display name; Telegram usernames change.
func (r *Repository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET username = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, username)
	if err != nil {
		return fmt.Errorf("update username: %w", err)
	}
	return nil
}

// AttributeReferral credits the referrer for one new signup: referral
// count +1, points +reward, and the VIP flag once the count reaches
// vipThreshold. One transaction, so a crash cannot leave the count bumped
// without the matching credit.
func (r *Repository) AttributeReferral(ctx context.Context, referrerID int64, reward, vipThreshold int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin referral tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var referrals int
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET referrals = referrals + 1, points = points + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING referrals
	`, referrerID, reward).Scan(&referrals)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrUserNotFound
		}
		return fmt.Errorf("credit referrer: %w", err)
	}

	if referrals >= vipThreshold {
		// VIP is monotonic: the guard keeps re-promotion a no-op.
		if _, err := tx.Exec(ctx, `
			UPDATE users SET vip = TRUE, updated_at = NOW()
			WHERE user_id = $1 AND vip = FALSE
		`, referrerID); err != nil {
			return fmt.Errorf("promote referrer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// TopReferrers returns the leaderboard ordered by referral count, ties
// broken by user ID for stable pagination.
func (r *Repository) TopReferrers(ctx context.Context, limit int) ([]Referrer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, username, referrals
		FROM users
		ORDER BY referrals DESC, user_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top referrers: %w", err)
	}
	defer rows.Close()

	var out []Referrer
	for rows.Next() {
		var t Referrer
		if err := rows.Scan(&t.UserID, &t.Username, &t.Referrals); err != nil {
			return nil, fmt.Errorf("scan referrer: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read referrers: %w", err)
	}
	return out, nil
}

// AllIDs returns every user ID, for broadcast fan-out.
func (r *Repository) AllIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read user ids: %w", err)
	}
	return ids, nil
}

// Count returns the total number of registered users.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
