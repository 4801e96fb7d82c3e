package ports

import (
	"context"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository defines persistence for ledger transactions.
// The store is insert-only; the only permitted mutations are attaching a
// transaction to a block and flipping its status on an explicit rollback.
// Methods accepting pgx.Tx run inside the caller's atomic unit.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByTxID(ctx context.Context, txID string) (*domain.Transaction, error)
	// ListUnattached returns transactions with no block yet, in insertion
	// order, row-locked so concurrent block builds serialize.
	ListUnattached(ctx context.Context, tx pgx.Tx) ([]domain.Transaction, error)
	AttachToBlock(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, blockID uuid.UUID) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error
	ListByBlockID(ctx context.Context, blockID uuid.UUID) ([]domain.Transaction, error)
}

// BlockRepository defines persistence for chain blocks. Insert-only.
type BlockRepository interface {
	Create(ctx context.Context, tx pgx.Tx, block *domain.Block) error
	// GetLatest returns the highest-index block, or nil on an empty chain.
	// Inside a block-build unit the row is locked to serialize builders.
	GetLatest(ctx context.Context, tx pgx.Tx) (*domain.Block, error)
	ListAll(ctx context.Context) ([]domain.Block, error)
}

// CreditTransactionRepository defines persistence for purchase records.
type CreditTransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, ct *domain.CreditTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditTransaction, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CreditTransaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.CreditTransaction, error)
	// GetByLedgerTxID fetches the purchase record tied to a BUY ledger
	// transaction, row-locked within the caller's unit.
	GetByLedgerTxID(ctx context.Context, tx pgx.Tx, ledgerTxID uuid.UUID) (*domain.CreditTransaction, error)
	Revoke(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error
	SumCreditsByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// RewardTransactionRepository defines persistence for the reward-point ledger.
type RewardTransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, rt *domain.RewardTransaction) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.RewardTransaction, error)
	// ListBySource returns the entries produced by one credit transaction.
	ListBySource(ctx context.Context, sourceID uuid.UUID) ([]domain.RewardTransaction, error)
}

// ProjectRepository defines persistence for projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Project, error)
	// SetIssuedCredits records first-time issuance: sets credits_earned and
	// flips the project to FINALIZED in one statement.
	SetIssuedCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits int64) error
	UpdateCreditsEarned(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits int64) error
}

// UserRepository defines persistence for users.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error)
	// AddPurchaseTotals increments the buyer's running totals.
	AddPurchaseTotals(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits, points int64) error
	AddRewardPoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, points int64) error
}

// SettingsRepository exposes the global minting flag.
type SettingsRepository interface {
	MintingEnabled(ctx context.Context) (bool, error)
	SetMintingEnabled(ctx context.Context, enabled bool) error
}

// AuditLogRepository defines persistence for audit entries.
// Deliberately append-and-read only: no update or delete methods exist.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
	List(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
