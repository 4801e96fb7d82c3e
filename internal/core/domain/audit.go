package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the closed enumeration of security-relevant actions.
type AuditAction string

const (
	AuditActionLogin              AuditAction = "LOGIN"
	AuditActionRoleChange         AuditAction = "ROLE_CHANGE"
	AuditActionProjectApproved    AuditAction = "PROJECT_APPROVED"
	AuditActionCreditsMinted      AuditAction = "CREDITS_MINTED"
	AuditActionPurchase           AuditAction = "PURCHASE"
	AuditActionCertificateRevoked AuditAction = "CERTIFICATE_REVOKED"
	AuditActionTxRolledBack       AuditAction = "TRANSACTION_ROLLED_BACK"
	AuditActionMintingToggled     AuditAction = "MINTING_TOGGLED"
	AuditActionBackup             AuditAction = "BACKUP"
	AuditActionChainVerified      AuditAction = "CHAIN_VERIFIED"
)

// AuditLogEntry records a single audited action. The store is append-only by
// design contract: no update or delete path exists anywhere in the system.
type AuditLogEntry struct {
	ID         uuid.UUID   `json:"id"`
	UserID     *uuid.UUID  `json:"user_id,omitempty"` // nil for system events
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id,omitempty"`
	Metadata   string      `json:"metadata,omitempty"` // JSON string
	CreatedAt  time.Time   `json:"created_at"`
}
