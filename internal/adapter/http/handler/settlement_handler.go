package handler

import (
	"carbon-ledger/internal/adapter/http/dto"
	"carbon-ledger/internal/adapter/http/middleware"
	"carbon-ledger/internal/core/ports"
	"carbon-ledger/pkg/apperror"
	"carbon-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderIdempotencyKey carries the client's purchase retry token.
const HeaderIdempotencyKey = "Idempotency-Key"

// SettlementHandler handles approval, purchase and revocation endpoints.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// RecordApproval handles POST /api/v1/approvals (admin only).
func (h *SettlementHandler) RecordApproval(c *gin.Context) {
	var req dto.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid project_id"))
		return
	}
	beneficiaryID, err := uuid.Parse(req.BeneficiaryID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid beneficiary_id"))
		return
	}

	txn, err := h.settlementSvc.RecordApproval(c.Request.Context(), ports.ApprovalRequest{
		ProjectID:     projectID,
		BeneficiaryID: beneficiaryID,
		Credits:       req.Credits,
		ProofRef:      req.ProofRef,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// Purchase handles POST /api/v1/purchases. The buyer identity comes from the
// authenticated token; the optional Idempotency-Key header makes the request
// safely retryable.
func (h *SettlementHandler) Purchase(c *gin.Context) {
	buyerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	contributorID, err := uuid.Parse(req.ContributorID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid contributor_id"))
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid project_id"))
		return
	}

	purchase := ports.PurchaseRequest{
		BuyerID:       buyerID.(uuid.UUID),
		ContributorID: contributorID,
		ProjectID:     projectID,
		Credits:       req.Credits,
		AmountPaid:    req.AmountPaid,
	}

	if key := c.GetHeader(HeaderIdempotencyKey); key != "" {
		if !dto.ValidIdempotencyKey(key) {
			response.Error(c, apperror.Validation("invalid Idempotency-Key header"))
			return
		}
		purchase.IdempotencyKey = &key
	}

	result, err := h.settlementSvc.Purchase(c.Request.Context(), purchase)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.PurchaseResponse{
		Transaction:             toTransactionResponse(result.Transaction),
		CreditTransaction:       toCreditTransactionResponse(result.CreditTransaction),
		ProjectCreditsRemaining: result.ProjectCreditsRemaining,
		BuyerCreditsPurchased:   result.BuyerCreditsPurchased,
		BuyerRewardPoints:       result.BuyerRewardPoints,
	})
}

// RollbackTransaction handles POST /api/v1/transactions/:txId/rollback
// (admin only). The path parameter is the content-derived tx_id, not the
// row UUID.
func (h *SettlementHandler) RollbackTransaction(c *gin.Context) {
	txID := c.Param("txId")

	var req dto.RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.RollbackTransaction(c.Request.Context(), txID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.RollbackResponse{
		Transaction:             toTransactionResponse(result.Transaction),
		OriginalTransaction:     toTransactionResponse(result.OriginalTransaction),
		ProjectCreditsRemaining: result.ProjectCreditsRemaining,
	})
}

// RevokeCertificate handles POST /api/v1/certificates/:id/revoke (admin only).
func (h *SettlementHandler) RevokeCertificate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid certificate id"))
		return
	}

	var req dto.RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ct, err := h.settlementSvc.RevokeCertificate(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toCreditTransactionResponse(ct))
}
