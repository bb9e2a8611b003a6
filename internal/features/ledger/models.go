// Package ledger owns point balances, VIP promotion and the daily claim.
// models.go holds the pure rules so they are testable without a database.
package ledger

import "time"

// DailyCooldown is how long a user must wait between daily claims.
// Wall-clock 24 hours, not calendar days: a claim at 23:59 does not
// unlock again at 00:01.
const DailyCooldown = 24 * time.Hour

// CanClaimAt reports whether a daily claim is allowed at the moment now,
// given the previous claim time (nil = never claimed).
func CanClaimAt(lastDaily *time.Time, now time.Time) bool {
	if lastDaily == nil {
		return true
	}
	return now.Sub(*lastDaily) >= DailyCooldown
}

// NextClaimIn returns how long until the next claim unlocks; zero or
// negative means it is available now.
func NextClaimIn(lastDaily *time.Time, now time.Time) time.Duration {
	if lastDaily == nil {
		return 0
	}
	return lastDaily.Add(DailyCooldown).Sub(now)
}

// ClaimResult describes a successful daily claim.
type ClaimResult struct {
	Awarded int // points credited (VIP or standard rate)
	Balance int // balance after the credit
}
