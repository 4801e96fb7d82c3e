package service

import (
	"context"
	"fmt"
	"time"

	"carbon-ledger/internal/core/domain"
	"carbon-ledger/internal/core/ports"
	"carbon-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BlockServiceImpl implements ports.BlockBuilder.
type BlockServiceImpl struct {
	txRepo      ports.TransactionRepository
	blockRepo   ports.BlockRepository
	crypto      ports.ChainCrypto
	transactor  ports.DBTransactor
	validatorID string
	log         zerolog.Logger
}

// NewBlockService creates a new BlockServiceImpl.
func NewBlockService(
	txRepo ports.TransactionRepository,
	blockRepo ports.BlockRepository,
	crypto ports.ChainCrypto,
	transactor ports.DBTransactor,
	validatorID string,
	log zerolog.Logger,
) *BlockServiceImpl {
	return &BlockServiceImpl{
		txRepo:      txRepo,
		blockRepo:   blockRepo,
		crypto:      crypto,
		transactor:  transactor,
		validatorID: validatorID,
		log:         log,
	}
}

// BuildPendingBlock folds all currently unattached transactions into a new
// block. Selecting the pending rows, inserting the block and attaching the
// transactions happen inside one database transaction: a crash never leaves
// a transaction permanently unattachable, the next invocation retries it.
// Returns (nil, nil) when nothing is pending.
func (s *BlockServiceImpl) BuildPendingBlock(ctx context.Context) (*domain.Block, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Row locks on the pending set serialize concurrent builders.
	pending, err := s.txRepo.ListUnattached(ctx, dbTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list unattached: %w", err))
	}
	if len(pending) == 0 {
		return nil, nil
	}

	latest, err := s.blockRepo.GetLatest(ctx, dbTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get latest block: %w", err))
	}

	index := int64(0)
	previousHash := domain.GenesisPreviousHash
	if latest != nil {
		index = latest.Index + 1
		previousHash = latest.BlockHash
	}

	txIDs := make([]string, len(pending))
	ids := make([]uuid.UUID, len(pending))
	for i, t := range pending {
		txIDs[i] = t.TxID
		ids[i] = t.ID
	}

	now := time.Now().UTC()
	merkleRoot := s.crypto.MerkleRoot(txIDs)
	blockHash, hashInput := s.crypto.BlockHash(index, now, merkleRoot, previousHash, len(pending))

	block := &domain.Block{
		ID:                 uuid.New(),
		Index:              index,
		Timestamp:          now,
		MerkleRoot:         merkleRoot,
		PreviousHash:       previousHash,
		BlockHash:          blockHash,
		BlockHashInput:     hashInput,
		ValidatorSignature: s.crypto.ValidatorTag(blockHash, s.validatorID),
		TransactionCount:   len(pending),
	}

	if err := s.blockRepo.Create(ctx, dbTx, block); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create block: %w", err))
	}
	if err := s.txRepo.AttachToBlock(ctx, dbTx, ids, block.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("attach transactions: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("index", block.Index).
		Str("block_hash", block.BlockHash).
		Int("transactions", block.TransactionCount).
		Msg("block sealed")

	return block, nil
}
