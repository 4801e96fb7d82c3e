package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_Attached(t *testing.T) {
	tx := &Transaction{}
	assert.False(t, tx.Attached())

	blockID := uuid.New()
	tx.BlockID = &blockID
	assert.True(t, tx.Attached())
}

func TestCreditTransaction_Revocable(t *testing.T) {
	tests := []struct {
		name   string
		status CertificateStatus
		want   bool
	}{
		{"valid", CertificateStatusValid, true},
		{"revoked", CertificateStatusRevoked, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := &CreditTransaction{Status: tt.status}
			assert.Equal(t, tt.want, ct.Revocable())
		})
	}
}

func TestCreditTransaction_MatchesRequest(t *testing.T) {
	buyerID := uuid.New()
	contributorID := uuid.New()
	projectID := uuid.New()
	ct := &CreditTransaction{
		BuyerID:       buyerID,
		ContributorID: contributorID,
		ProjectID:     projectID,
		Credits:       60,
		AmountPaid:    90000,
	}

	assert.True(t, ct.MatchesRequest(buyerID, contributorID, projectID, 60, 90000))
	assert.False(t, ct.MatchesRequest(uuid.New(), contributorID, projectID, 60, 90000))
	assert.False(t, ct.MatchesRequest(buyerID, contributorID, projectID, 61, 90000))
	assert.False(t, ct.MatchesRequest(buyerID, contributorID, projectID, 60, 90001))
}

func TestBuildPurchaseIdempotencyKey(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	key := BuildPurchaseIdempotencyKey(id, "ORD-001")
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000:ORD-001", key)
}

func TestProject_Approvable(t *testing.T) {
	tests := []struct {
		name   string
		status ProjectStatus
		want   bool
	}{
		{"pending", ProjectStatusPending, false},
		{"approved", ProjectStatusApproved, true},
		{"finalized", ProjectStatusFinalized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Project{Status: tt.status}
			assert.Equal(t, tt.want, p.Approvable())
		})
	}
}

func TestBlock_IsGenesis(t *testing.T) {
	assert.True(t, (&Block{Index: 0}).IsGenesis())
	assert.False(t, (&Block{Index: 1}).IsGenesis())
}

func TestGenesisPreviousHash_Shape(t *testing.T) {
	// 64 hex zeros, the width of a SHA3-256 digest.
	assert.Len(t, GenesisPreviousHash, 64)
	for _, c := range GenesisPreviousHash {
		assert.Equal(t, '0', c)
	}
}

func TestChainVerification_Tampered(t *testing.T) {
	clean := &ChainVerification{Status: ChainStatusVerified}
	assert.False(t, clean.Tampered())

	dirty := &ChainVerification{
		Status: ChainStatusTampered,
		Findings: []ChainFinding{
			{BlockIndex: 2, Kind: FindingBlockHashMismatch, Detail: "stored hash does not match recomputed hash"},
		},
	}
	assert.True(t, dirty.Tampered())
}

func TestTransactionKind_Constants(t *testing.T) {
	assert.Equal(t, TransactionKind("MINT"), TransactionKindMint)
	assert.Equal(t, TransactionKind("BUY"), TransactionKindBuy)
	assert.Equal(t, TransactionKind("SELL"), TransactionKindSell)
	assert.Equal(t, TransactionKind("ROLLBACK"), TransactionKindRollback)
}

func TestTransactionStatus_Constants(t *testing.T) {
	assert.Equal(t, TransactionStatus("COMPLETED"), TransactionStatusCompleted)
	assert.Equal(t, TransactionStatus("ROLLED_BACK"), TransactionStatusRolledBack)
}

func TestCertificateStatus_Constants(t *testing.T) {
	assert.Equal(t, CertificateStatus("VALID"), CertificateStatusValid)
	assert.Equal(t, CertificateStatus("REVOKED"), CertificateStatusRevoked)
}

func TestRewardKind_Constants(t *testing.T) {
	assert.Equal(t, RewardKind("GRANT"), RewardKindGrant)
	assert.Equal(t, RewardKind("REVERSAL"), RewardKindReversal)
}
