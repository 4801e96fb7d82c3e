package handler

import (
	"strconv"
	"time"

	"carbon-ledger/internal/adapter/http/dto"
	"carbon-ledger/internal/core/domain"
	"carbon-ledger/internal/core/ports"
	"carbon-ledger/pkg/apperror"
	"carbon-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles settings and audit log endpoints.
type AdminHandler struct {
	settingsRepo ports.SettingsRepository
	auditSvc     ports.AuditService
	auditRepo    ports.AuditLogRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(settingsRepo ports.SettingsRepository, auditSvc ports.AuditService, auditRepo ports.AuditLogRepository) *AdminHandler {
	return &AdminHandler{
		settingsRepo: settingsRepo,
		auditSvc:     auditSvc,
		auditRepo:    auditRepo,
	}
}

// GetMintingSetting handles GET /api/v1/settings/minting.
func (h *AdminHandler) GetMintingSetting(c *gin.Context) {
	enabled, err := h.settingsRepo.MintingEnabled(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	response.OK(c, dto.MintingSettingResponse{Enabled: enabled})
}

// SetMintingSetting handles PUT /api/v1/settings/minting.
func (h *AdminHandler) SetMintingSetting(c *gin.Context) {
	var req dto.MintingSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.settingsRepo.SetMintingEnabled(c.Request.Context(), *req.Enabled); err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	response.OK(c, dto.MintingSettingResponse{Enabled: *req.Enabled})
}

// ListAuditLogs handles GET /api/v1/audit/logs. The default source is the
// durable store; ?source=recent reads the in-process store instead, which
// keeps working while the database is down.
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	var entries []domain.AuditLogEntry
	if c.Query("source") == "recent" {
		entries = h.auditSvc.Recent(limit)
	} else {
		var err error
		entries, err = h.auditRepo.List(c.Request.Context(), limit)
		if err != nil {
			response.Error(c, apperror.InternalError(err))
			return
		}
	}

	out := make([]dto.AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditLogResponse(&e))
	}
	response.OK(c, out)
}

func toAuditLogResponse(e *domain.AuditLogEntry) dto.AuditLogResponse {
	resp := dto.AuditLogResponse{
		ID:         e.ID.String(),
		Action:     string(e.Action),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Metadata:   e.Metadata,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339Nano),
	}
	if e.UserID != nil {
		s := e.UserID.String()
		resp.UserID = &s
	}
	return resp
}
