package postgres

import (
	"context"
	"testing"
	"time"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject(status domain.ProjectStatus) *domain.Project {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Project{
		ID:            uuid.New(),
		Name:          "Mangrove Restoration",
		ContributorID: uuid.New(),
		Status:        status,
		CreditsEarned: 100,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func projectColumnsList() []string {
	return []string{"id", "name", "contributor_id", "status", "credits_earned", "created_at", "updated_at"}
}

func TestProjectRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProjectRepo(mock)
	p := newTestProject(domain.ProjectStatusFinalized)

	mock.ExpectQuery("SELECT .+ FROM projects WHERE id").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(projectColumnsList()).
			AddRow(p.ID, p.Name, p.ContributorID, p.Status, p.CreditsEarned, p.CreatedAt, p.UpdatedAt))

	result, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.Name, result.Name)
	assert.Equal(t, int64(100), result.CreditsEarned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepo_GetByIDForUpdate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProjectRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM projects WHERE id = \\$1 FOR UPDATE").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(projectColumnsList()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepo_SetIssuedCredits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProjectRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE projects SET credits_earned").
		WithArgs(int64(100), domain.ProjectStatusFinalized, id, domain.ProjectStatusApproved).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.SetIssuedCredits(context.Background(), tx, id, 100)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepo_SetIssuedCredits_NotApproved(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProjectRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE projects SET credits_earned").
		WithArgs(int64(100), domain.ProjectStatusFinalized, id, domain.ProjectStatusApproved).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0)) // already finalized or still pending

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.SetIssuedCredits(context.Background(), tx, id, 100)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not in approved state")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepo_UpdateCreditsEarned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProjectRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE projects SET credits_earned").
		WithArgs(int64(40), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateCreditsEarned(context.Background(), tx, id, 40)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
