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

func newTestBlock(index int64) *domain.Block {
	return &domain.Block{
		ID:                 uuid.New(),
		Index:              index,
		Timestamp:          time.Now().UTC().Truncate(time.Microsecond),
		MerkleRoot:         "merkle",
		PreviousHash:       domain.GenesisPreviousHash,
		BlockHash:          "hash",
		BlockHashInput:     "0|123|merkle|prev|1",
		ValidatorSignature: "sig",
		TransactionCount:   1,
	}
}

func blockColumnsList() []string {
	return []string{"id", "block_index", "timestamp", "merkle_root", "previous_hash", "block_hash", "block_hash_input", "validator_signature", "transaction_count"}
}

func blockRow(b *domain.Block) *pgxmock.Rows {
	return pgxmock.NewRows(blockColumnsList()).AddRow(
		b.ID, b.Index, b.Timestamp, b.MerkleRoot, b.PreviousHash,
		b.BlockHash, b.BlockHashInput, b.ValidatorSignature, b.TransactionCount,
	)
}

func TestBlockRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBlockRepo(mock)
	block := newTestBlock(0)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO blocks").
		WithArgs(block.ID, block.Index, block.Timestamp, block.MerkleRoot,
			block.PreviousHash, block.BlockHash, block.BlockHashInput,
			block.ValidatorSignature, block.TransactionCount).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, block)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockRepo_GetLatest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBlockRepo(mock)
	block := newTestBlock(7)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM blocks ORDER BY block_index DESC LIMIT 1 FOR UPDATE").
		WillReturnRows(blockRow(block))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetLatest(context.Background(), tx)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(7), result.Index)
	assert.Equal(t, block.BlockHashInput, result.BlockHashInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockRepo_GetLatest_EmptyChain(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBlockRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM blocks ORDER BY block_index DESC LIMIT 1 FOR UPDATE").
		WillReturnRows(pgxmock.NewRows(blockColumnsList()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetLatest(context.Background(), tx)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockRepo_ListAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBlockRepo(mock)
	b0 := newTestBlock(0)
	b1 := newTestBlock(1)

	mock.ExpectQuery("SELECT .+ FROM blocks ORDER BY block_index ASC").
		WillReturnRows(pgxmock.NewRows(blockColumnsList()).
			AddRow(b0.ID, b0.Index, b0.Timestamp, b0.MerkleRoot, b0.PreviousHash, b0.BlockHash, b0.BlockHashInput, b0.ValidatorSignature, b0.TransactionCount).
			AddRow(b1.ID, b1.Index, b1.Timestamp, b1.MerkleRoot, b1.PreviousHash, b1.BlockHash, b1.BlockHashInput, b1.ValidatorSignature, b1.TransactionCount))

	blocks, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, int64(0), blocks[0].Index)
	assert.Equal(t, int64(1), blocks[1].Index)
	assert.NoError(t, mock.ExpectationsWereMet())
}
