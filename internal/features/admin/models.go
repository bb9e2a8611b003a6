// Package admin implements the admin panel: password authentication,
// DB-backed sessions, the step-by-step dialog state machine, broadcast
// fan-out and the stats dashboard.
// models.go describes sessions, login attempts and dialog states.
package admin

import "time"

// Session is an active admin session.
type Session struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt is one login try, kept for brute-force throttling.
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// DialogState names a step in the admin dialog. The panel is reply-driven:
// after pressing "Add Accounts" or "Broadcast" the next message from that
// admin is the payload.
type DialogState string

const (
	StateIdle              DialogState = ""
	StateAwaitingBulkAdd   DialogState = "awaiting_bulk_add"
	StateAwaitingBroadcast DialogState = "awaiting_broadcast"
)

// dialog pairs a state with its expiry; stale dialogs fall back to idle.
type dialog struct {
	State     DialogState
	ExpiresAt time.Time
}

// Stats is the admin dashboard snapshot.
type Stats struct {
	Users          int
	Stock          int
	StockByTier    map[string]int
	Redemptions    int
	PendingReports int
}

// BroadcastResult reports fan-out counts; one failed delivery never
// aborts the rest.
type BroadcastResult struct {
	Sent   int
	Failed int
}
