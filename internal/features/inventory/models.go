// Package inventory owns the pool of redeemable account credentials.
// models.go defines the item and tier types.
package inventory

import "time"

// Tier classifies an item for allocation preference.
type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierStandard || t == TierPremium
}

// Item is one distributable credential. The row is deleted from the pool
// the instant it is allocated to a redemption.
type Item struct {
	ID        int64     `db:"id"`
	Payload   string    `db:"payload"` // opaque credential text, stored as-is
	Tier      Tier      `db:"tier"`
	CreatedAt time.Time `db:"created_at"`
}

// BulkAddResult reports a partially successful bulk add: every rejected
// entry is echoed back (truncated) so the admin can fix and resubmit.
type BulkAddResult struct {
	Added    int
	Rejected []string
}
