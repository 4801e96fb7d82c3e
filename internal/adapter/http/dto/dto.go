package dto

// ApprovalRequest is the request body for recording a project approval.
type ApprovalRequest struct {
	ProjectID     string `json:"project_id" binding:"required,uuid4"`
	BeneficiaryID string `json:"beneficiary_id" binding:"required,uuid4"`
	Credits       int64  `json:"credits" binding:"required,gt=0"`
	ProofRef      string `json:"proof_ref" binding:"omitempty,proof_ref"`
}

// PurchaseRequest is the request body for a credit purchase. The buyer is
// taken from the authenticated token, never from the body. The idempotency
// key travels in the Idempotency-Key header.
type PurchaseRequest struct {
	ContributorID string `json:"contributor_id" binding:"required,uuid4"`
	ProjectID     string `json:"project_id" binding:"required,uuid4"`
	Credits       int64  `json:"credits" binding:"required,gt=0"`
	AmountPaid    int64  `json:"amount_paid" binding:"gte=0"`
}

// RevokeRequest is the request body for certificate revocation.
type RevokeRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RollbackRequest is the request body for an explicit transaction rollback.
type RollbackRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// MintingSettingRequest is the request body for toggling global minting.
type MintingSettingRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// TransactionResponse is the wire shape of a ledger transaction.
type TransactionResponse struct {
	ID        string  `json:"id"`
	TxID      string  `json:"tx_id"`
	Kind      string  `json:"kind"`
	FromParty string  `json:"from_party"`
	ToParty   string  `json:"to_party"`
	Credits   int64   `json:"credits"`
	ProjectID string  `json:"project_id"`
	Timestamp string  `json:"timestamp"`
	ProofHash string  `json:"proof_hash"`
	BlockID   *string `json:"block_id,omitempty"`
	Status    string  `json:"status"`
}

// CreditTransactionResponse is the wire shape of a purchase certificate.
type CreditTransactionResponse struct {
	ID            string  `json:"id"`
	BuyerID       string  `json:"buyer_id"`
	ContributorID string  `json:"contributor_id"`
	ProjectID     string  `json:"project_id"`
	Credits       int64   `json:"credits"`
	AmountPaid    int64   `json:"amount_paid"`
	Status        string  `json:"status"`
	LedgerTxID    string  `json:"ledger_tx_id"`
	RevokedAt     *string `json:"revoked_at,omitempty"`
	RevokeReason  string  `json:"revoke_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// PurchaseResponse is the response body for a settled purchase.
type PurchaseResponse struct {
	Transaction             TransactionResponse       `json:"transaction"`
	CreditTransaction       CreditTransactionResponse `json:"credit_transaction"`
	ProjectCreditsRemaining int64                     `json:"project_credits_remaining"`
	BuyerCreditsPurchased   int64                     `json:"buyer_credits_purchased"`
	BuyerRewardPoints       int64                     `json:"buyer_reward_points"`
}

// RollbackResponse is the response body for a compensated purchase.
type RollbackResponse struct {
	Transaction             TransactionResponse `json:"transaction"`
	OriginalTransaction     TransactionResponse `json:"original_transaction"`
	ProjectCreditsRemaining int64               `json:"project_credits_remaining"`
}

// BlockResponse is the wire shape of a chain block.
type BlockResponse struct {
	ID                 string `json:"id"`
	Index              int64  `json:"index"`
	Timestamp          string `json:"timestamp"`
	MerkleRoot         string `json:"merkle_root"`
	PreviousHash       string `json:"previous_hash"`
	BlockHash          string `json:"block_hash"`
	ValidatorSignature string `json:"validator_signature"`
	TransactionCount   int    `json:"transaction_count"`
}

// ChainEntryResponse pairs a block with its transactions.
type ChainEntryResponse struct {
	Block        BlockResponse         `json:"block"`
	Transactions []TransactionResponse `json:"transactions"`
}

// ChainFindingResponse is one integrity failure.
type ChainFindingResponse struct {
	BlockIndex int64  `json:"block_index"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
}

// VerificationResponse is the outcome of an integrity scan.
type VerificationResponse struct {
	Status   string                 `json:"status"`
	Findings []ChainFindingResponse `json:"findings"`
}

// AuditLogResponse is the wire shape of one audit entry.
type AuditLogResponse struct {
	ID         string  `json:"id"`
	UserID     *string `json:"user_id,omitempty"`
	Action     string  `json:"action"`
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id,omitempty"`
	Metadata   string  `json:"metadata,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// MintingSettingResponse reports the global minting flag.
type MintingSettingResponse struct {
	Enabled bool `json:"enabled"`
}
