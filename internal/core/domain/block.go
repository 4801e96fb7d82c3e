package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenesisPreviousHash is the previous-hash sentinel of the first block.
const GenesisPreviousHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Block is an immutable batch of ledger transactions. Blocks are insert-only:
// no code path updates or deletes a block row.
type Block struct {
	ID         uuid.UUID `json:"id"`
	Index      int64     `json:"index"` // 0-based, strictly sequential
	Timestamp  time.Time `json:"timestamp"`
	MerkleRoot string    `json:"merkle_root"`
	// PreviousHash links to the prior block's BlockHash; the genesis block
	// carries GenesisPreviousHash.
	PreviousHash string `json:"previous_hash"`
	BlockHash    string `json:"block_hash"`
	// BlockHashInput is the exact canonical string that was hashed to produce
	// BlockHash. Persisted verbatim so verification never has to re-derive
	// the serialization.
	BlockHashInput     string `json:"-"`
	ValidatorSignature string `json:"validator_signature"`
	TransactionCount   int    `json:"transaction_count"`
}

// IsGenesis reports whether this is the first block of the chain.
func (b *Block) IsGenesis() bool {
	return b.Index == 0
}

// BlockWithTransactions is the export shape of one chain entry.
type BlockWithTransactions struct {
	Block        Block         `json:"block"`
	Transactions []Transaction `json:"transactions"`
}
