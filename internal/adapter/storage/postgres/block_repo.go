package postgres

import (
	"context"
	"errors"
	"fmt"

	"carbon-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// BlockRepo implements ports.BlockRepository. Blocks are insert-only: no
// UPDATE or DELETE statement exists in this file.
type BlockRepo struct {
	pool Pool
}

// NewBlockRepo creates a new BlockRepo.
func NewBlockRepo(pool Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

const blockColumns = `id, block_index, timestamp, merkle_root, previous_hash, block_hash, block_hash_input, validator_signature, transaction_count`

// Create inserts a new block within the caller's transaction.
func (r *BlockRepo) Create(ctx context.Context, tx pgx.Tx, block *domain.Block) error {
	query := `INSERT INTO blocks (id, block_index, timestamp, merkle_root, previous_hash, block_hash, block_hash_input, validator_signature, transaction_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		block.ID, block.Index, block.Timestamp, block.MerkleRoot,
		block.PreviousHash, block.BlockHash, block.BlockHashInput,
		block.ValidatorSignature, block.TransactionCount,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

// GetLatest returns the highest-index block, locked so concurrent block
// builders serialize on the chain tip. Returns nil on an empty chain.
func (r *BlockRepo) GetLatest(ctx context.Context, tx pgx.Tx) (*domain.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks ORDER BY block_index DESC LIMIT 1 FOR UPDATE`

	b := &domain.Block{}
	err := tx.QueryRow(ctx, query).Scan(
		&b.ID, &b.Index, &b.Timestamp, &b.MerkleRoot, &b.PreviousHash,
		&b.BlockHash, &b.BlockHashInput, &b.ValidatorSignature, &b.TransactionCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest block: %w", err)
	}
	return b, nil
}

// ListAll returns every block in index order.
func (r *BlockRepo) ListAll(ctx context.Context) ([]domain.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks ORDER BY block_index ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.Block
	for rows.Next() {
		var b domain.Block
		if err := rows.Scan(
			&b.ID, &b.Index, &b.Timestamp, &b.MerkleRoot, &b.PreviousHash,
			&b.BlockHash, &b.BlockHashInput, &b.ValidatorSignature, &b.TransactionCount,
		); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return blocks, nil
}
