package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carbon-ledger/config"
	httpHandler "carbon-ledger/internal/adapter/http/handler"
	pgStorage "carbon-ledger/internal/adapter/storage/postgres"
	redisStorage "carbon-ledger/internal/adapter/storage/redis"
	"carbon-ledger/internal/core/ports"
	"carbon-ledger/internal/service"
	"carbon-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("validator_id", cfg.Ledger.ValidatorID).
		Msg("Starting Carbon Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	txRepo := pgStorage.NewTransactionRepo(pool)
	blockRepo := pgStorage.NewBlockRepo(pool)
	creditRepo := pgStorage.NewCreditTransactionRepo(pool)
	rewardRepo := pgStorage.NewRewardTransactionRepo(pool)
	projectRepo := pgStorage.NewProjectRepo(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	settingsRepo := pgStorage.NewSettingsRepo(pool)
	auditRepo := pgStorage.NewAuditLogRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	cryptoSvc := service.NewChainCryptoService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditLogService(auditRepo, cfg.Audit.QueueCapacity, cfg.Audit.RecentLimit, cfg.Audit.FlushInterval, log)
	defer auditSvc.Close()

	// Initialize business services
	blockSvc := service.NewBlockService(txRepo, blockRepo, cryptoSvc, transactor, cfg.Ledger.ValidatorID, log)
	chainSvc := service.NewChainService(txRepo, blockRepo, cryptoSvc, log)
	settlementSvc := service.NewSettlementService(
		transactor,
		txRepo,
		creditRepo,
		rewardRepo,
		projectRepo,
		userRepo,
		settingsRepo,
		blockSvc,
		cryptoSvc,
		idempotencyCache,
		auditSvc,
		cfg.Reward,
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		SettlementSvc:  settlementSvc,
		ChainSvc:       chainSvc,
		SettingsRepo:   settingsRepo,
		AuditRepo:      auditRepo,
		TokenSvc:       tokenSvc,
		AuditSvc:       auditSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
