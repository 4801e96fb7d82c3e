package handler

import (
	"carbon-ledger/internal/adapter/http/middleware"
	redisStore "carbon-ledger/internal/adapter/storage/redis"
	"carbon-ledger/internal/core/domain"
	"carbon-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	SettlementSvc  ports.SettlementService
	ChainSvc       ports.ChainReader
	SettingsRepo   ports.SettingsRepository
	AuditRepo      ports.AuditLogRepository
	TokenSvc       ports.TokenService
	AuditSvc       ports.AuditService         // nil = audit logging disabled
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Route-level audit trail (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditTrail(deps.AuditSvc))
	}

	// Health check (deep: verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth): the chain is an open, verifiable record ---
	chainHandler := NewChainHandler(deps.ChainSvc)
	chain := v1.Group("/chain")
	{
		chain.GET("", rl("chain"), chainHandler.GetChain)
		chain.GET("/verify", rl("chain_verify"), chainHandler.VerifyChain)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	settlementHandler := NewSettlementHandler(deps.SettlementSvc)

	purchases := v1.Group("/purchases", jwtAuth, middleware.RequireRole(domain.RoleBuyer, domain.RoleAdmin))
	{
		purchases.POST("", rl("purchases"), settlementHandler.Purchase)
	}

	approvals := v1.Group("/approvals", jwtAuth, adminOnly)
	{
		approvals.POST("", rl("approvals"), settlementHandler.RecordApproval)
	}

	certificates := v1.Group("/certificates", jwtAuth, adminOnly)
	{
		certificates.POST("/:id/revoke", rl("admin"), settlementHandler.RevokeCertificate)
	}

	transactions := v1.Group("/transactions", jwtAuth, adminOnly)
	{
		transactions.POST("/:txId/rollback", rl("admin"), settlementHandler.RollbackTransaction)
	}

	// --- Admin: settings and audit ---
	adminHandler := NewAdminHandler(deps.SettingsRepo, deps.AuditSvc, deps.AuditRepo)

	settings := v1.Group("/settings", jwtAuth, adminOnly)
	{
		settings.GET("/minting", rl("admin"), adminHandler.GetMintingSetting)
		settings.PUT("/minting", rl("admin"), adminHandler.SetMintingSetting)
	}

	audit := v1.Group("/audit", jwtAuth, adminOnly)
	{
		audit.GET("/logs", rl("admin"), adminHandler.ListAuditLogs)
	}

	return r
}
