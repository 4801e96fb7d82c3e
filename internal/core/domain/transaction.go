package domain

import (
	"time"

	"github.com/google/uuid"
)

// SystemParty is the fromParty recorded on minting transactions.
const SystemParty = "system"

// TransactionKind represents the kind of credit movement.
type TransactionKind string

const (
	TransactionKindMint     TransactionKind = "MINT"
	TransactionKindBuy      TransactionKind = "BUY"
	TransactionKindSell     TransactionKind = "SELL"
	TransactionKindRollback TransactionKind = "ROLLBACK"
)

// TransactionStatus represents the lifecycle state of a ledger transaction.
type TransactionStatus string

const (
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusRolledBack TransactionStatus = "ROLLED_BACK"
)

// Transaction is one immutable ledger entry for a credit-affecting event.
// Once written it is never updated except to set BlockID (batching) or
// Status (explicit rollback), and never deleted.
type Transaction struct {
	ID        uuid.UUID         `json:"id"`
	TxID      string            `json:"tx_id"` // content-derived, unique
	Kind      TransactionKind   `json:"kind"`
	FromParty string            `json:"from_party"` // "system" for minting
	ToParty   string            `json:"to_party"`
	Credits   int64             `json:"credits"` // smallest credit unit, always > 0
	ProjectID uuid.UUID         `json:"project_id"`
	Timestamp time.Time         `json:"timestamp"`
	ProofHash string            `json:"proof_hash"`
	BlockID   *uuid.UUID        `json:"block_id,omitempty"` // nil until batched
	Status    TransactionStatus `json:"status"`
}

// Attached returns true once the transaction has been folded into a block.
func (t *Transaction) Attached() bool {
	return t.BlockID != nil
}
