package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexDigestRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestChainCrypto_Hash_Deterministic(t *testing.T) {
	c := NewChainCryptoService()

	h1 := c.Hash([]byte("hello"))
	h2 := c.Hash([]byte("hello"))
	assert.Equal(t, h1, h2)
	assert.Regexp(t, hexDigestRe, h1)

	assert.NotEqual(t, h1, c.Hash([]byte("hello!")))
}

func TestChainCrypto_Hash_EmptyInput(t *testing.T) {
	c := NewChainCryptoService()

	// nil and empty slice hash identically
	assert.Equal(t, c.Hash(nil), c.Hash([]byte{}))
	assert.Regexp(t, hexDigestRe, c.Hash(nil))
}

func TestChainCrypto_DeriveTxID(t *testing.T) {
	c := NewChainCryptoService()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)

	id1 := c.DeriveTxID("proj-1", "buyer-1", 100, ts)
	id2 := c.DeriveTxID("proj-1", "buyer-1", 100, ts)
	assert.Equal(t, id1, id2)
	assert.Regexp(t, hexDigestRe, id1)

	// Any field change produces a different id
	assert.NotEqual(t, id1, c.DeriveTxID("proj-2", "buyer-1", 100, ts))
	assert.NotEqual(t, id1, c.DeriveTxID("proj-1", "buyer-2", 100, ts))
	assert.NotEqual(t, id1, c.DeriveTxID("proj-1", "buyer-1", 101, ts))
	assert.NotEqual(t, id1, c.DeriveTxID("proj-1", "buyer-1", 100, ts.Add(time.Nanosecond)))
}

func TestChainCrypto_MerkleRoot_Empty(t *testing.T) {
	c := NewChainCryptoService()
	assert.Equal(t, c.Hash(nil), c.MerkleRoot(nil))
	assert.Equal(t, c.Hash(nil), c.MerkleRoot([]string{}))
}

func TestChainCrypto_MerkleRoot_SingleLeaf(t *testing.T) {
	c := NewChainCryptoService()
	root := c.MerkleRoot([]string{"tx-a"})
	assert.Equal(t, c.Hash([]byte("tx-a")), root)
	assert.NotEqual(t, "tx-a", root)
}

func TestChainCrypto_MerkleRoot_PairReduction(t *testing.T) {
	c := NewChainCryptoService()

	la := c.Hash([]byte("tx-a"))
	lb := c.Hash([]byte("tx-b"))
	expected := c.Hash([]byte(la + lb))

	assert.Equal(t, expected, c.MerkleRoot([]string{"tx-a", "tx-b"}))
}

func TestChainCrypto_MerkleRoot_OddCountDuplicatesLast(t *testing.T) {
	c := NewChainCryptoService()

	// Three leaves: the last is paired with itself.
	la := c.Hash([]byte("tx-a"))
	lb := c.Hash([]byte("tx-b"))
	lc := c.Hash([]byte("tx-c"))
	level1a := c.Hash([]byte(la + lb))
	level1b := c.Hash([]byte(lc + lc))
	expected := c.Hash([]byte(level1a + level1b))

	assert.Equal(t, expected, c.MerkleRoot([]string{"tx-a", "tx-b", "tx-c"}))
}

func TestChainCrypto_MerkleRoot_OrderSensitive(t *testing.T) {
	c := NewChainCryptoService()

	r1 := c.MerkleRoot([]string{"tx-a", "tx-b", "tx-c"})
	r2 := c.MerkleRoot([]string{"tx-c", "tx-b", "tx-a"})
	assert.NotEqual(t, r1, r2)
}

func TestChainCrypto_BlockHash_CanonicalInput(t *testing.T) {
	c := NewChainCryptoService()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	hash, input := c.BlockHash(7, ts, "root", "prev", 3)
	require.Regexp(t, hexDigestRe, hash)

	// Re-hashing the persisted canonical input must reproduce the digest.
	assert.Equal(t, hash, c.Hash([]byte(input)))

	// Same fields, same result
	hash2, input2 := c.BlockHash(7, ts, "root", "prev", 3)
	assert.Equal(t, hash, hash2)
	assert.Equal(t, input, input2)

	// Different index, different digest
	hash3, _ := c.BlockHash(8, ts, "root", "prev", 3)
	assert.NotEqual(t, hash, hash3)
}

func TestChainCrypto_ValidatorTag(t *testing.T) {
	c := NewChainCryptoService()

	tag1 := c.ValidatorTag("blockhash", "node-1")
	tag2 := c.ValidatorTag("blockhash", "node-1")
	assert.Equal(t, tag1, tag2)
	assert.Regexp(t, hexDigestRe, tag1)

	assert.NotEqual(t, tag1, c.ValidatorTag("blockhash", "node-2"))
	assert.NotEqual(t, tag1, c.ValidatorTag("otherhash", "node-1"))
}
