package ports

import (
	"context"
	"time"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// ChainCrypto provides the deterministic hashing primitives the ledger is
// built on. No randomness, no salts: same input, same output, always.
type ChainCrypto interface {
	// Hash returns the lowercase hex SHA3-256 digest of data.
	Hash(data []byte) string
	// DeriveTxID hashes a canonical concatenation of the identifying fields.
	DeriveTxID(projectID, toParty string, credits int64, ts time.Time) string
	// MerkleRoot reduces an ordered list of transaction ids to a single
	// digest. Order-sensitive by contract.
	MerkleRoot(txIDs []string) string
	// BlockHash serializes the header fields in fixed order, hashes the
	// result and returns both the digest and the exact serialized input.
	BlockHash(index int64, ts time.Time, merkleRoot, previousHash string, txCount int) (hash string, canonicalInput string)
	// ValidatorTag derives the tamper-evidence tag for a sealed block.
	ValidatorTag(blockHash, validatorID string) string
}

// BlockBuilder folds unattached ledger transactions into new blocks.
type BlockBuilder interface {
	// BuildPendingBlock returns (nil, nil) when nothing is pending.
	BuildPendingBlock(ctx context.Context) (*domain.Block, error)
}

// ChainReader exposes the read-only chain surfaces.
type ChainReader interface {
	GetChain(ctx context.Context) ([]domain.BlockWithTransactions, error)
	VerifyChain(ctx context.Context) (*domain.ChainVerification, error)
}

// --- Settlement (business logic) ---

// ApprovalRequest holds the validated "project approved" event.
type ApprovalRequest struct {
	ProjectID     uuid.UUID
	BeneficiaryID uuid.UUID
	Credits       int64
	ProofRef      string // URL or identifier of supporting evidence, may be empty
}

// PurchaseRequest holds a validated purchase event.
type PurchaseRequest struct {
	BuyerID        uuid.UUID
	ContributorID  uuid.UUID
	ProjectID      uuid.UUID
	Credits        int64
	AmountPaid     int64
	IdempotencyKey *string // client retry token, optional
}

// PurchaseResult is everything a purchase settles in one atomic unit.
type PurchaseResult struct {
	Transaction             *domain.Transaction       `json:"transaction"`
	CreditTransaction       *domain.CreditTransaction `json:"credit_transaction"`
	ProjectCreditsRemaining int64                     `json:"project_credits_remaining"`
	BuyerCreditsPurchased   int64                     `json:"buyer_credits_purchased"`
	BuyerRewardPoints       int64                     `json:"buyer_reward_points"`
}

// RollbackResult is everything an explicit rollback compensates in one unit.
type RollbackResult struct {
	// Transaction is the compensating ROLLBACK ledger entry.
	Transaction             *domain.Transaction `json:"transaction"`
	OriginalTransaction     *domain.Transaction `json:"original_transaction"`
	ProjectCreditsRemaining int64               `json:"project_credits_remaining"`
}

// SettlementService is the transactional unit of work behind approval and
// purchase events.
type SettlementService interface {
	RecordApproval(ctx context.Context, req ApprovalRequest) (*domain.Transaction, error)
	Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error)
	RevokeCertificate(ctx context.Context, id uuid.UUID, reason string) (*domain.CreditTransaction, error)
	// RollbackTransaction compensates a settled purchase by tx_id. The
	// original ledger entry is never rewritten beyond its status flag.
	RollbackTransaction(ctx context.Context, txID, reason string) (*RollbackResult, error)
}

// AuditService records security-relevant events. Record must never block the
// caller's primary operation and never surfaces an error.
type AuditService interface {
	Record(ctx context.Context, entry *domain.AuditLogEntry)
	// Recent returns up to n entries from the in-process store, newest first.
	Recent(n int) []domain.AuditLogEntry
	Close()
}

// TokenService validates the platform-issued identity tokens.
type TokenService interface {
	Generate(userID uuid.UUID, role string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed identity claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   string
}

// IdempotencyCache is the fast-path purchase idempotency check.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
