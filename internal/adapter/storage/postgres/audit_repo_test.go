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

func auditColumnsList() []string {
	return []string{"id", "user_id", "action", "entity_type", "entity_id", "metadata", "created_at"}
}

func TestAuditLogRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditLogRepo(mock)
	userID := uuid.New()
	entry := &domain.AuditLogEntry{
		ID:         uuid.New(),
		UserID:     &userID,
		Action:     domain.AuditActionPurchase,
		EntityType: "credit_transaction",
		EntityID:   uuid.New().String(),
		Metadata:   `{"credits":60}`,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(entry.ID, entry.UserID, entry.Action, entry.EntityType,
			entry.EntityID, entry.Metadata, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), entry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditLogRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM audit_logs ORDER BY created_at DESC LIMIT").
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows(auditColumnsList()).
			AddRow(uuid.New(), &userID, domain.AuditActionPurchase, "credit_transaction", "a", "", now).
			AddRow(uuid.New(), (*uuid.UUID)(nil), domain.AuditActionChainVerified, "chain", "b", "", now.Add(-time.Minute)))

	entries, err := repo.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditActionPurchase, entries[0].Action)
	assert.Nil(t, entries[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepo_List_DefaultLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditLogRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM audit_logs ORDER BY created_at DESC LIMIT").
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows(auditColumnsList()))

	entries, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
