// Package redemption is the engine that exchanges points for inventory
// items and keeps the append-only redemption log.
package redemption

import "time"

// Record is one completed redemption. The payload is snapshotted here so
// it survives the item row's deletion; the log is the system of record
// for dispute resolution. Cost stores what was actually paid, so a later
// refund returns that exact amount regardless of VIP changes in between.
type Record struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Account   string    `db:"account"` // allocated credential payload, verbatim
	Cost      int       `db:"cost"`
	CreatedAt time.Time `db:"created_at"`
}

// Result is what a successful redeem hands back to the transport layer.
type Result struct {
	RecordID int64  // the redemption log row, referenced by reports
	Payload  string // the credential to show the user
	Cost     int    // points deducted
	Balance  int    // balance after the deduction
}
