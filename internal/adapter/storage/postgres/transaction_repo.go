package postgres

import (
	"context"
	"errors"
	"fmt"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
// The transactions table is insert-only; the only UPDATE statements here set
// block_id (batching) and status (explicit rollback). No DELETE exists.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, tx_id, kind, from_party, to_party, credits, project_id, timestamp, proof_hash, block_id, status`

// Create inserts a new ledger transaction within the caller's transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		txn.ID, txn.TxID, txn.Kind, txn.FromParty, txn.ToParty,
		txn.Credits, txn.ProjectID, txn.Timestamp, txn.ProofHash,
		txn.BlockID, txn.Status,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by its UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn := &domain.Transaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&txn.ID, &txn.TxID, &txn.Kind, &txn.FromParty, &txn.ToParty,
		&txn.Credits, &txn.ProjectID, &txn.Timestamp, &txn.ProofHash,
		&txn.BlockID, &txn.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return txn, nil
}

// GetByTxID fetches a transaction by its content-derived identifier.
func (r *TransactionRepo) GetByTxID(ctx context.Context, txID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tx_id = $1`

	txn := &domain.Transaction{}
	err := r.pool.QueryRow(ctx, query, txID).Scan(
		&txn.ID, &txn.TxID, &txn.Kind, &txn.FromParty, &txn.ToParty,
		&txn.Credits, &txn.ProjectID, &txn.Timestamp, &txn.ProofHash,
		&txn.BlockID, &txn.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by tx_id: %w", err)
	}
	return txn, nil
}

// ListUnattached returns transactions not yet folded into a block, oldest
// first, row-locked so concurrent block builds serialize on the same set.
func (r *TransactionRepo) ListUnattached(ctx context.Context, tx pgx.Tx) ([]domain.Transaction, error) {
	// The id tiebreaker keeps the order stable when timestamps collide at
	// microsecond precision: verification re-reads these rows and must see
	// the exact order the merkle root was computed over.
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE block_id IS NULL ORDER BY timestamp ASC, id ASC FOR UPDATE`

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unattached transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// AttachToBlock sets block_id on the given transactions.
func (r *TransactionRepo) AttachToBlock(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, blockID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE transactions SET block_id = $1 WHERE id = ANY($2) AND block_id IS NULL`

	tag, err := tx.Exec(ctx, query, blockID, ids)
	if err != nil {
		return fmt.Errorf("attach transactions to block: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return fmt.Errorf("attach transactions to block: expected %d rows, got %d", len(ids), tag.RowsAffected())
	}
	return nil
}

// UpdateStatus flips a transaction's status. Used only by explicit rollback.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	query := `UPDATE transactions SET status = $1 WHERE id = $2`

	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// ListByBlockID returns a block's transactions in the same stable order the
// block builder read them in.
func (r *TransactionRepo) ListByBlockID(ctx context.Context, blockID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE block_id = $1 ORDER BY timestamp ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, blockID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by block: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		if err := rows.Scan(
			&txn.ID, &txn.TxID, &txn.Kind, &txn.FromParty, &txn.ToParty,
			&txn.Credits, &txn.ProjectID, &txn.Timestamp, &txn.ProofHash,
			&txn.BlockID, &txn.Status,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}
