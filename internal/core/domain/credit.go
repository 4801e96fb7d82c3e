package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CertificateStatus is the lifecycle of a purchase certificate.
type CertificateStatus string

const (
	CertificateStatusValid   CertificateStatus = "VALID"
	CertificateStatusRevoked CertificateStatus = "REVOKED"
)

// CreditTransaction is the purchase record: who bought how many credits of
// which project, for how much, and the certificate state of that purchase.
// Revocation flips Status and fills RevokedAt/RevokeReason; it never touches
// the ledger transaction the purchase produced.
type CreditTransaction struct {
	ID            uuid.UUID         `json:"id"`
	BuyerID       uuid.UUID         `json:"buyer_id"`
	ContributorID uuid.UUID         `json:"contributor_id"`
	ProjectID     uuid.UUID         `json:"project_id"`
	Credits       int64             `json:"credits"`
	AmountPaid    int64             `json:"amount_paid"` // smallest currency unit
	Status        CertificateStatus `json:"status"`
	// IdempotencyKey is the scoped client retry token, nil when the client
	// sent none. Unique in the store when present.
	IdempotencyKey *string    `json:"idempotency_key,omitempty"`
	LedgerTxID     uuid.UUID  `json:"ledger_tx_id"` // the BUY ledger transaction
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	RevokeReason   string     `json:"revoke_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Revocable returns true while the certificate has not been revoked.
func (c *CreditTransaction) Revocable() bool {
	return c.Status == CertificateStatusValid
}

// MatchesRequest reports whether a stored purchase was made with exactly
// these parameters. Used to distinguish an idempotent replay from a key
// collision.
func (c *CreditTransaction) MatchesRequest(buyerID, contributorID, projectID uuid.UUID, credits, amountPaid int64) bool {
	return c.BuyerID == buyerID &&
		c.ContributorID == contributorID &&
		c.ProjectID == projectID &&
		c.Credits == credits &&
		c.AmountPaid == amountPaid
}

// BuildPurchaseIdempotencyKey scopes a client-supplied retry token to the
// buyer, so two buyers reusing the same token never collide.
func BuildPurchaseIdempotencyKey(buyerID uuid.UUID, clientKey string) string {
	return fmt.Sprintf("%s:%s", buyerID, clientKey)
}
