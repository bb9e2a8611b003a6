// Package reports is the dispute engine: users flag broken redeemed
// accounts, admins approve (refund) or reject.
// models.go defines reasons, statuses and the report row.
package reports

import "time"

// Reason is the fixed enumeration of dispute reasons. Anything
// unrecognized is normalized to ReasonOther.
type Reason string

const (
	ReasonPasswordChanged  Reason = "password_changed"
	ReasonAccountLocked    Reason = "account_locked"
	ReasonTwoFactorEnabled Reason = "two_factor_enabled"
	ReasonOther            Reason = "other"
)

// NormalizeReason maps a raw code onto the enumeration.
func NormalizeReason(code string) Reason {
	switch Reason(code) {
	case ReasonPasswordChanged, ReasonAccountLocked, ReasonTwoFactorEnabled:
		return Reason(code)
	}
	// Legacy callback payloads used "2fa_enabled".
	if code == "2fa_enabled" {
		return ReasonTwoFactorEnabled
	}
	return ReasonOther
}

// Label returns the human-readable form shown in the admin panel.
func (r Reason) Label() string {
	switch r {
	case ReasonPasswordChanged:
		return "Password Changed"
	case ReasonAccountLocked:
		return "Account Locked"
	case ReasonTwoFactorEnabled:
		return "2FA Enabled"
	default:
		return "Other Issue"
	}
}

// Status values. Transitions: pending→approved or pending→rejected,
// exactly once.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Report is one dispute. RedemptionID pins it to a concrete redemption
// when the payload could be resolved at filing time; refunds then return
// exactly what was paid.
type Report struct {
	ID           int64      `db:"id"`
	UserID       int64      `db:"user_id"`
	Username     string     `db:"username"` // joined in for admin listings
	RedemptionID *int64     `db:"redemption_id"`
	Account      string     `db:"account"` // disputed payload, snapshotted
	Reason       Reason     `db:"reason"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	DecidedAt    *time.Time `db:"decided_at"`
}
