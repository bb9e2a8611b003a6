// Package common: errors.go defines the sentinel errors shared by every
// feature. Handlers match these with errors.Is and turn them into short
// user-facing messages; anything else is treated as a storage failure.
package common

import "errors"

// Economy errors (points, daily claims, redemptions)
var (
	// ErrUserNotFound: the account does not exist in the database
	ErrUserNotFound = errors.New("user not found")
	// ErrInsufficientPoints: balance is below the redemption cost
	ErrInsufficientPoints = errors.New("not enough points")
	// ErrOutOfStock: no account left in the pool, even after tier fallback
	ErrOutOfStock = errors.New("no accounts in stock")
	// ErrDailyNotReady: 24 hours have not elapsed since the last claim
	ErrDailyNotReady = errors.New("daily reward not available yet")
)

// Report errors
var (
	// ErrReportNotFound: no report with that ID
	ErrReportNotFound = errors.New("report not found")
	// ErrAlreadyDecided: the report has already been approved or rejected
	ErrAlreadyDecided = errors.New("report already decided")
)

// Admin errors
var (
	// ErrNotAdmin: the user is not a configured administrator
	ErrNotAdmin = errors.New("you are not an administrator")
	// ErrWrongPassword: admin password verification failed
	ErrWrongPassword = errors.New("wrong password")
	// ErrTooManyAttempts: login attempt throttle tripped
	ErrTooManyAttempts = errors.New("too many attempts, wait an hour")
	// ErrSessionExpired: the admin identity checks out but no live
	// password session exists (never opened, timed out, or logged out)
	ErrSessionExpired = errors.New("session expired, log in again")
)
