package domain

import (
	"time"

	"github.com/google/uuid"
)

// RewardKind distinguishes point grants from their reversals.
type RewardKind string

const (
	RewardKindGrant    RewardKind = "GRANT"
	RewardKindReversal RewardKind = "REVERSAL"
)

// RewardTransaction is one entry in the reward-point ledger. Points on the
// user row are a running total; these rows are the source of truth for how
// the total came to be.
type RewardTransaction struct {
	ID     uuid.UUID  `json:"id"`
	UserID uuid.UUID  `json:"user_id"`
	Points int64      `json:"points"`
	Kind   RewardKind `json:"kind"`
	// SourceTransactionID references the credit transaction that earned
	// (or reversed) the points.
	SourceTransactionID uuid.UUID `json:"source_transaction_id"`
	CreatedAt           time.Time `json:"created_at"`
}
