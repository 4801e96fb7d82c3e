package postgres

import (
	"context"
	"errors"
	"fmt"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProjectRepo implements ports.ProjectRepository.
type ProjectRepo struct {
	pool Pool
}

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(pool Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

const projectColumns = `id, name, contributor_id, status, credits_earned, created_at, updated_at`

// Create inserts a new project.
func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.ContributorID, p.Status, p.CreditsEarned, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID fetches a project by its UUID (without locking).
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.pool.QueryRow(ctx, query, id), "get project by id")
}

// GetByIDForUpdate fetches a project with pessimistic locking.
// This MUST be called within a transaction.
func (r *ProjectRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 FOR UPDATE`
	return scanProject(tx.QueryRow(ctx, query, id), "get project for update")
}

// SetIssuedCredits records first-time issuance: it sets the available
// balance and finalizes the project in one statement. The status guard in
// the WHERE clause makes double-issuance affect zero rows.
func (r *ProjectRepo) SetIssuedCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits int64) error {
	query := `UPDATE projects SET credits_earned = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, query, credits, domain.ProjectStatusFinalized, id, domain.ProjectStatusApproved)
	if err != nil {
		return fmt.Errorf("set issued credits: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project not in approved state: %s", id)
	}
	return nil
}

// UpdateCreditsEarned sets the project's available balance within a transaction.
func (r *ProjectRepo) UpdateCreditsEarned(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits int64) error {
	query := `UPDATE projects SET credits_earned = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, credits, id)
	if err != nil {
		return fmt.Errorf("update credits earned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func scanProject(row pgx.Row, op string) (*domain.Project, error) {
	p := &domain.Project{}
	err := row.Scan(&p.ID, &p.Name, &p.ContributorID, &p.Status, &p.CreditsEarned, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
