package middleware

import (
	"encoding/json"

	"carbon-ledger/internal/core/domain"
	"carbon-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditTrail records route-level audit events for successful requests. Only
// routes the settlement engine does not audit itself are mapped here;
// domain-level events (minting, purchases, revocations) are recorded by the
// settlement service with richer metadata.
func AuditTrail(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}

		action, entityType := mapPathToAction(c.Request.URL.Path, c.Request.Method)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if uid, exists := c.Get(CtxUserID); exists {
			if id, ok := uid.(uuid.UUID); ok {
				userID = &id
			}
		}

		metadata, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"ip":     c.ClientIP(),
		})

		auditSvc.Record(c.Request.Context(), &domain.AuditLogEntry{
			UserID:     userID,
			Action:     action,
			EntityType: entityType,
			Metadata:   string(metadata),
		})
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/api/v1/settings/minting" && method == "PUT":
		return domain.AuditActionMintingToggled, "settings"
	case path == "/api/v1/chain/verify" && method == "GET":
		return domain.AuditActionChainVerified, "chain"
	}
	return "", ""
}
