package postgres

import (
	"context"
	"errors"
	"fmt"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, display_name, role, credits_purchased, reward_points, created_at, updated_at`

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.DisplayName, u.Role, u.CreditsPurchased, u.RewardPoints, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by its UUID (without locking).
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id), "get user by id")
}

// GetByIDForUpdate fetches a user with pessimistic locking.
// This MUST be called within a transaction.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(tx.QueryRow(ctx, query, id), "get user for update")
}

// AddPurchaseTotals increments the buyer's running totals within a transaction.
func (r *UserRepo) AddPurchaseTotals(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits, points int64) error {
	query := `UPDATE users
		SET credits_purchased = credits_purchased + $1,
		    reward_points = reward_points + $2,
		    updated_at = NOW()
		WHERE id = $3`

	tag, err := tx.Exec(ctx, query, credits, points, id)
	if err != nil {
		return fmt.Errorf("add purchase totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// AddRewardPoints increments a user's reward points within a transaction.
func (r *UserRepo) AddRewardPoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, points int64) error {
	query := `UPDATE users SET reward_points = reward_points + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, points, id)
	if err != nil {
		return fmt.Errorf("add reward points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

func scanUser(row pgx.Row, op string) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.DisplayName, &u.Role, &u.CreditsPurchased, &u.RewardPoints, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
