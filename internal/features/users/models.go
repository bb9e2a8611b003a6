// Package users manages the account registry and the referral graph.
// models.go describes the users table rows.
package users

import (
	"strconv"
	"time"
)

// User is one account row. Created on first /start, never deleted.
type User struct {
	UserID    int64      `db:"user_id"`    // Telegram user ID (primary key)
	Username  string     `db:"username"`   // display name (may be empty)
	Points    int        `db:"points"`     // current point balance, never persisted negative
	VIP       bool       `db:"vip"`        // monotonic: once true, never cleared
	Referrals int        `db:"referrals"`  // how many accounts this user referred
	LastDaily *time.Time `db:"last_daily"` // nil until the first daily claim
	RefBy     *int64     `db:"ref_by"`     // referrer's user ID, nil for organic signups
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// DisplayName returns the username, or the numeric ID when it is empty.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.UserID, 10)
}

// Referrer is one leaderboard entry.
type Referrer struct {
	UserID    int64
	Username  string
	Referrals int
}
