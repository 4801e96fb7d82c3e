package domain

// ChainStatus is the overall outcome of an integrity scan.
type ChainStatus string

const (
	ChainStatusVerified ChainStatus = "verified"
	ChainStatusTampered ChainStatus = "tampered"
)

// FindingKind classifies a single integrity failure.
type FindingKind string

const (
	FindingBlockHashMismatch    FindingKind = "block_hash_mismatch"
	FindingPreviousHashMismatch FindingKind = "previous_hash_mismatch"
	FindingMerkleRootMismatch   FindingKind = "merkle_root_mismatch"
	FindingIndexGap             FindingKind = "index_gap"
)

// ChainFinding pinpoints one tampered block.
type ChainFinding struct {
	BlockIndex int64       `json:"block_index"`
	Kind       FindingKind `json:"kind"`
	Detail     string      `json:"detail"`
}

// ChainVerification is the result of walking the stored block sequence and
// recomputing every hash and link.
type ChainVerification struct {
	Status   ChainStatus    `json:"status"`
	Findings []ChainFinding `json:"findings"`
}

// Tampered reports whether any finding was recorded.
func (v *ChainVerification) Tampered() bool {
	return len(v.Findings) > 0
}
