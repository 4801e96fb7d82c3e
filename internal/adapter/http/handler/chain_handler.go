package handler

import (
	"net/http"
	"time"

	"carbon-ledger/internal/adapter/http/dto"
	"carbon-ledger/internal/core/domain"
	"carbon-ledger/internal/core/ports"
	"carbon-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ChainHandler handles the public chain endpoints.
type ChainHandler struct {
	chainSvc ports.ChainReader
}

// NewChainHandler creates a new ChainHandler.
func NewChainHandler(chainSvc ports.ChainReader) *ChainHandler {
	return &ChainHandler{chainSvc: chainSvc}
}

// GetChain handles GET /api/v1/chain.
func (h *ChainHandler) GetChain(c *gin.Context) {
	chain, err := h.chainSvc.GetChain(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	entries := make([]dto.ChainEntryResponse, 0, len(chain))
	for _, e := range chain {
		txs := make([]dto.TransactionResponse, 0, len(e.Transactions))
		for _, t := range e.Transactions {
			txs = append(txs, toTransactionResponse(&t))
		}
		entries = append(entries, dto.ChainEntryResponse{
			Block:        toBlockResponse(&e.Block),
			Transactions: txs,
		})
	}
	response.OK(c, entries)
}

// VerifyChain handles GET /api/v1/chain/verify.
func (h *ChainHandler) VerifyChain(c *gin.Context) {
	result, err := h.chainSvc.VerifyChain(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	findings := make([]dto.ChainFindingResponse, 0, len(result.Findings))
	for _, f := range result.Findings {
		findings = append(findings, dto.ChainFindingResponse{
			BlockIndex: f.BlockIndex,
			Kind:       string(f.Kind),
			Detail:     f.Detail,
		})
	}
	response.OK(c, dto.VerificationResponse{
		Status:   string(result.Status),
		Findings: findings,
	})
}

// HealthCheck handles GET /health, a deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:        t.ID.String(),
		TxID:      t.TxID,
		Kind:      string(t.Kind),
		FromParty: t.FromParty,
		ToParty:   t.ToParty,
		Credits:   t.Credits,
		ProjectID: t.ProjectID.String(),
		Timestamp: t.Timestamp.Format(time.RFC3339Nano),
		ProofHash: t.ProofHash,
		Status:    string(t.Status),
	}
	if t.BlockID != nil {
		s := t.BlockID.String()
		resp.BlockID = &s
	}
	return resp
}

func toBlockResponse(b *domain.Block) dto.BlockResponse {
	return dto.BlockResponse{
		ID:                 b.ID.String(),
		Index:              b.Index,
		Timestamp:          b.Timestamp.Format(time.RFC3339Nano),
		MerkleRoot:         b.MerkleRoot,
		PreviousHash:       b.PreviousHash,
		BlockHash:          b.BlockHash,
		ValidatorSignature: b.ValidatorSignature,
		TransactionCount:   b.TransactionCount,
	}
}

func toCreditTransactionResponse(ct *domain.CreditTransaction) dto.CreditTransactionResponse {
	resp := dto.CreditTransactionResponse{
		ID:            ct.ID.String(),
		BuyerID:       ct.BuyerID.String(),
		ContributorID: ct.ContributorID.String(),
		ProjectID:     ct.ProjectID.String(),
		Credits:       ct.Credits,
		AmountPaid:    ct.AmountPaid,
		Status:        string(ct.Status),
		LedgerTxID:    ct.LedgerTxID.String(),
		RevokeReason:  ct.RevokeReason,
		CreatedAt:     ct.CreatedAt.Format(time.RFC3339Nano),
	}
	if ct.RevokedAt != nil {
		s := ct.RevokedAt.Format(time.RFC3339Nano)
		resp.RevokedAt = &s
	}
	return resp
}
