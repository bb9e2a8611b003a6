// Package reports: repository.go runs the dispute SQL. A decision is a
// conditional UPDATE guarded on status='pending': whichever admin click
// lands first wins, the second affects zero rows and fails with
// ErrAlreadyDecided. The approve refund happens in the same transaction,
// so a report can never be approved without its refund or refunded twice.
package reports

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

// Create files a pending report.
func (r *Repository) Create(ctx context.Context, userID int64, redemptionID *int64, account string, reason Reason) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO reports (user_id, redemption_id, account, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, userID, redemptionID, account, reason, StatusPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create report: %w", err)
	}
	return id, nil
}

// Approve flips pending→approved and refunds the reporter in one
// transaction. The refund is the cost recorded on the linked redemption;
// when no redemption was resolved at filing time it falls back to the
// standard price table for the reporter's current VIP status
// (fallbackStandard/fallbackVIP). Returns the refunded amount.
func (r *Repository) Approve(ctx context.Context, reportID int64, fallbackStandard, fallbackVIP int) (int64, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin approve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID int64
	var redemptionID *int64
	err = tx.QueryRow(ctx, `
		UPDATE reports
		SET status = $2, decided_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING user_id, redemption_id
	`, reportID, StatusApproved, StatusPending).Scan(&userID, &redemptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, r.decideConflict(ctx, reportID)
		}
		return 0, 0, fmt.Errorf("approve report: %w", err)
	}

	refund := 0
	if redemptionID != nil {
		err = tx.QueryRow(ctx,
			`SELECT cost FROM redemptions WHERE id = $1`, *redemptionID,
		).Scan(&refund)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, fmt.Errorf("read paid cost: %w", err)
		}
	}
	if refund == 0 {
		var vip bool
		if err := tx.QueryRow(ctx,
			`SELECT vip FROM users WHERE user_id = $1`, userID,
		).Scan(&vip); err != nil {
			return 0, 0, fmt.Errorf("read reporter vip: %w", err)
		}
		refund = fallbackStandard
		if vip {
			refund = fallbackVIP
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET points = points + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, refund); err != nil {
		return 0, 0, fmt.Errorf("refund points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit approve tx: %w", err)
	}
	return userID, refund, nil
}

// Reject flips pending→rejected. No balance change.
func (r *Repository) Reject(ctx context.Context, reportID int64) (int64, error) {
	var userID int64
	err := r.db.QueryRow(ctx, `
		UPDATE reports
		SET status = $2, decided_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING user_id
	`, reportID, StatusRejected, StatusPending).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, r.decideConflict(ctx, reportID)
		}
		return 0, fmt.Errorf("reject report: %w", err)
	}
	return userID, nil
}

// decideConflict tells a missing report apart from an already-decided one.
func (r *Repository) decideConflict(ctx context.Context, reportID int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reports WHERE id = $1)`, reportID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check report exists: %w", err)
	}
	if !exists {
		return common.ErrReportNotFound
	}
	return common.ErrAlreadyDecided
}

// Pending lists undecided reports, oldest first, with the reporter's name
// joined in for the admin panel.
func (r *Repository) Pending(ctx context.Context) ([]Report, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.user_id, u.username, r.redemption_id, r.account,
		       r.reason, r.status, r.created_at, r.decided_at
		FROM reports r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.status = $1
		ORDER BY r.created_at ASC, r.id ASC
	`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("query pending reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(
			&rep.ID, &rep.UserID, &rep.Username, &rep.RedemptionID, &rep.Account,
			&rep.Reason, &rep.Status, &rep.CreatedAt, &rep.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}
	return out, nil
}

// CountPending returns the pending total for the admin dashboard.
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE status = $1`, StatusPending,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending reports: %w", err)
	}
	return n, nil
}
