package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// ChainCryptoService implements ports.ChainCrypto.
// Every primitive is deterministic: the verifier must be able to recompute
// any digest from persisted data alone.
type ChainCryptoService struct{}

// NewChainCryptoService creates a new ChainCryptoService.
func NewChainCryptoService() *ChainCryptoService {
	return &ChainCryptoService{}
}

// Hash returns the lowercase hex SHA3-256 digest of data.
func (s *ChainCryptoService) Hash(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DeriveTxID hashes the canonical concatenation of the identifying fields.
// Format: projectID|toParty|credits|unixNano. Uniqueness beyond timestamp
// precision is enforced by the store's unique key on tx_id, not here.
func (s *ChainCryptoService) DeriveTxID(projectID, toParty string, credits int64, ts time.Time) string {
	canonical := fmt.Sprintf("%s|%s|%d|%d", projectID, toParty, credits, ts.UnixNano())
	return s.Hash([]byte(canonical))
}

// MerkleRoot reduces an ordered list of transaction ids to a single digest
// via pairwise concatenate-and-hash. An odd level carries a duplicate of its
// last element. The empty list hashes the empty string; a single element is
// hashed once more so a leaf never equals its own root.
func (s *ChainCryptoService) MerkleRoot(txIDs []string) string {
	if len(txIDs) == 0 {
		return s.Hash(nil)
	}

	level := make([]string, len(txIDs))
	for i, id := range txIDs {
		level[i] = s.Hash([]byte(id))
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, s.Hash([]byte(level[i]+level[i+1])))
		}
		level = next
	}

	return level[0]
}

// BlockHash serializes the header fields in fixed order and hashes them.
// The canonical input is returned alongside the digest and must be persisted
// verbatim: verification re-hashes the stored string without re-deriving the
// serialization.
// Format: index|unixNano|merkleRoot|previousHash|txCount.
func (s *ChainCryptoService) BlockHash(index int64, ts time.Time, merkleRoot, previousHash string, txCount int) (string, string) {
	canonical := fmt.Sprintf("%d|%d|%s|%s|%d", index, ts.UnixNano(), merkleRoot, previousHash, txCount)
	return s.Hash([]byte(canonical)), canonical
}

// ValidatorTag derives the tamper-evidence tag for a sealed block:
// HMAC-SHA256 keyed by the validator identity over the block hash. This is
// an audit-trail fingerprint, not a public-key signature.
func (s *ChainCryptoService) ValidatorTag(blockHash, validatorID string) string {
	mac := hmac.New(sha256.New, []byte(validatorID))
	mac.Write([]byte(blockHash))
	return hex.EncodeToString(mac.Sum(nil))
}
