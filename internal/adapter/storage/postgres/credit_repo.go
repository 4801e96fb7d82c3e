package postgres

import (
	"context"
	"errors"
	"fmt"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreditTransactionRepo implements ports.CreditTransactionRepository.
type CreditTransactionRepo struct {
	pool Pool
}

// NewCreditTransactionRepo creates a new CreditTransactionRepo.
func NewCreditTransactionRepo(pool Pool) *CreditTransactionRepo {
	return &CreditTransactionRepo{pool: pool}
}

const creditColumns = `id, buyer_id, contributor_id, project_id, credits, amount_paid, status, idempotency_key, ledger_tx_id, revoked_at, revoke_reason, created_at`

// Create inserts a new purchase record within the caller's transaction.
// The unique index on idempotency_key rejects concurrent duplicates.
func (r *CreditTransactionRepo) Create(ctx context.Context, tx pgx.Tx, ct *domain.CreditTransaction) error {
	query := `INSERT INTO credit_transactions (` + creditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		ct.ID, ct.BuyerID, ct.ContributorID, ct.ProjectID, ct.Credits,
		ct.AmountPaid, ct.Status, ct.IdempotencyKey, ct.LedgerTxID,
		ct.RevokedAt, ct.RevokeReason, ct.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credit transaction: %w", err)
	}
	return nil
}

// GetByID fetches a purchase record by its UUID (without locking).
func (r *CreditTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditTransaction, error) {
	query := `SELECT ` + creditColumns + ` FROM credit_transactions WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get credit transaction by id")
}

// GetByIDForUpdate fetches a purchase record with pessimistic locking.
// This MUST be called within a transaction.
func (r *CreditTransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CreditTransaction, error) {
	query := `SELECT ` + creditColumns + ` FROM credit_transactions WHERE id = $1 FOR UPDATE`
	return r.scanOne(tx.QueryRow(ctx, query, id), "get credit transaction for update")
}

// GetByIdempotencyKey fetches a purchase record by its scoped retry token.
func (r *CreditTransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.CreditTransaction, error) {
	query := `SELECT ` + creditColumns + ` FROM credit_transactions WHERE idempotency_key = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, key), "get credit transaction by idempotency key")
}

// GetByLedgerTxID fetches the purchase record tied to a BUY ledger
// transaction, locked for the caller's unit.
func (r *CreditTransactionRepo) GetByLedgerTxID(ctx context.Context, tx pgx.Tx, ledgerTxID uuid.UUID) (*domain.CreditTransaction, error) {
	query := `SELECT ` + creditColumns + ` FROM credit_transactions WHERE ledger_tx_id = $1 FOR UPDATE`
	return r.scanOne(tx.QueryRow(ctx, query, ledgerTxID), "get credit transaction by ledger tx")
}

// Revoke flips the certificate status. The WHERE clause re-checks the state
// so a racing double-revoke affects zero rows.
func (r *CreditTransactionRepo) Revoke(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	query := `UPDATE credit_transactions
		SET status = $1, revoked_at = NOW(), revoke_reason = $2
		WHERE id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, query, domain.CertificateStatusRevoked, reason, id, domain.CertificateStatusValid)
	if err != nil {
		return fmt.Errorf("revoke credit transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("credit transaction not revocable: %s", id)
	}
	return nil
}

// SumCreditsByProject totals the credits sold for one project.
func (r *CreditTransactionRepo) SumCreditsByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(credits), 0) FROM credit_transactions WHERE project_id = $1`

	var total int64
	if err := r.pool.QueryRow(ctx, query, projectID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum credits by project: %w", err)
	}
	return total, nil
}

func (r *CreditTransactionRepo) scanOne(row pgx.Row, op string) (*domain.CreditTransaction, error) {
	ct := &domain.CreditTransaction{}
	err := row.Scan(
		&ct.ID, &ct.BuyerID, &ct.ContributorID, &ct.ProjectID, &ct.Credits,
		&ct.AmountPaid, &ct.Status, &ct.IdempotencyKey, &ct.LedgerTxID,
		&ct.RevokedAt, &ct.RevokeReason, &ct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ct, nil
}
