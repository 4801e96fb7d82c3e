package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_MintingEnabled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)

	mock.ExpectQuery("SELECT value FROM settings WHERE key").
		WithArgs("minting_enabled").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("false"))

	enabled, err := repo.MintingEnabled(context.Background())
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_MintingEnabled_DefaultsTrue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)

	mock.ExpectQuery("SELECT value FROM settings WHERE key").
		WithArgs("minting_enabled").
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	enabled, err := repo.MintingEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_SetMintingEnabled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)

	mock.ExpectExec("INSERT INTO settings").
		WithArgs("minting_enabled", "true").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.SetMintingEnabled(context.Background(), true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
