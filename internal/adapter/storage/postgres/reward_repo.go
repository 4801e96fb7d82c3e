package postgres

import (
	"context"
	"fmt"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RewardTransactionRepo implements ports.RewardTransactionRepository.
// Insert-only: reward history is never rewritten.
type RewardTransactionRepo struct {
	pool Pool
}

// NewRewardTransactionRepo creates a new RewardTransactionRepo.
func NewRewardTransactionRepo(pool Pool) *RewardTransactionRepo {
	return &RewardTransactionRepo{pool: pool}
}

// Create inserts a reward entry within the caller's transaction.
func (r *RewardTransactionRepo) Create(ctx context.Context, tx pgx.Tx, rt *domain.RewardTransaction) error {
	query := `INSERT INTO reward_transactions (id, user_id, points, kind, source_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		rt.ID, rt.UserID, rt.Points, rt.Kind, rt.SourceTransactionID, rt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reward transaction: %w", err)
	}
	return nil
}

// ListByUser returns a user's reward history, newest first.
func (r *RewardTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.RewardTransaction, error) {
	query := `SELECT id, user_id, points, kind, source_transaction_id, created_at
		FROM reward_transactions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reward transactions: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

// ListBySource returns the reward entries produced by one credit transaction.
func (r *RewardTransactionRepo) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]domain.RewardTransaction, error) {
	query := `SELECT id, user_id, points, kind, source_transaction_id, created_at
		FROM reward_transactions WHERE source_transaction_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list reward transactions by source: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

func scanRewards(rows pgx.Rows) ([]domain.RewardTransaction, error) {
	var rts []domain.RewardTransaction
	for rows.Next() {
		var rt domain.RewardTransaction
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.Points, &rt.Kind, &rt.SourceTransactionID, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reward transaction: %w", err)
		}
		rts = append(rts, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward transactions: %w", err)
	}
	return rts, nil
}
