package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carbon-ledger/config"
	httpHandler "carbon-ledger/internal/adapter/http/handler"
	redisStorage "carbon-ledger/internal/adapter/storage/redis"
	"carbon-ledger/internal/core/domain"
	"carbon-ledger/internal/core/ports"
	"carbon-ledger/internal/service"
	"carbon-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack: real services, real HTTP layer and
// middleware, real Redis stores against miniredis, and in-memory postgres
// repos. Only the durable store itself is substituted.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis

	txRepo      *inMemoryTransactionRepo
	blockRepo   *inMemoryBlockRepo
	creditRepo  *inMemoryCreditRepo
	rewardRepo  *inMemoryRewardRepo
	projectRepo *inMemoryProjectRepo
	userRepo    *inMemoryUserRepo
	auditRepo   *inMemoryAuditRepo
	auditSvc    *service.AuditLogService
	settlement  ports.SettlementService
	transactor  *lockingTransactor

	adminID       uuid.UUID
	buyerID       uuid.UUID
	contributorID uuid.UUID
	projectID     uuid.UUID

	adminToken       string
	buyerToken       string
	contributorToken string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	idemCache := redisStorage.NewIdempotencyCache(rdb)
	rateStore := redisStorage.NewRateLimitStore(rdb)

	txRepo := newInMemoryTransactionRepo()
	blockRepo := newInMemoryBlockRepo()
	creditRepo := newInMemoryCreditRepo()
	rewardRepo := newInMemoryRewardRepo()
	projectRepo := newInMemoryProjectRepo()
	userRepo := newInMemoryUserRepo()
	settingsRepo := newInMemorySettingsRepo()
	auditRepo := newInMemoryAuditRepo()
	transactor := newLockingTransactor()

	log := logger.New("error", false)
	crypto := service.NewChainCryptoService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")
	auditSvc := service.NewAuditLogService(auditRepo, 64, 100, time.Second, log)
	blockSvc := service.NewBlockService(txRepo, blockRepo, crypto, transactor, "test-validator", log)
	chainSvc := service.NewChainService(txRepo, blockRepo, crypto, log)
	settlementSvc := service.NewSettlementService(
		transactor, txRepo, creditRepo, rewardRepo, projectRepo, userRepo, settingsRepo,
		blockSvc, crypto, idemCache, auditSvc,
		config.RewardConfig{BuyerPointsPerCredit: 1, ContributorPointsPerCredit: 2},
		log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		SettlementSvc:  settlementSvc,
		ChainSvc:       chainSvc,
		SettingsRepo:   settingsRepo,
		AuditRepo:      auditRepo,
		TokenSvc:       tokenSvc,
		AuditSvc:       auditSvc,
		RateLimitStore: rateStore,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	app := &testApp{
		server:        httptest.NewServer(router),
		redis:         mr,
		txRepo:        txRepo,
		blockRepo:     blockRepo,
		creditRepo:    creditRepo,
		rewardRepo:    rewardRepo,
		projectRepo:   projectRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		auditSvc:      auditSvc,
		settlement:    settlementSvc,
		transactor:    transactor,
		adminID:       uuid.New(),
		buyerID:       uuid.New(),
		contributorID: uuid.New(),
		projectID:     uuid.New(),
	}

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, userRepo.Create(ctx, &domain.User{ID: app.adminID, DisplayName: "Platform Admin", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, userRepo.Create(ctx, &domain.User{ID: app.buyerID, DisplayName: "Acme Corp", Role: domain.RoleBuyer, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, userRepo.Create(ctx, &domain.User{ID: app.contributorID, DisplayName: "Mangrove Coop", Role: domain.RoleContributor, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, projectRepo.Create(ctx, &domain.Project{
		ID:            app.projectID,
		Name:          "Mangrove Restoration",
		ContributorID: app.contributorID,
		Status:        domain.ProjectStatusApproved,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))

	app.adminToken = mustToken(t, tokenSvc, app.adminID, domain.RoleAdmin)
	app.buyerToken = mustToken(t, tokenSvc, app.buyerID, domain.RoleBuyer)
	app.contributorToken = mustToken(t, tokenSvc, app.contributorID, domain.RoleContributor)

	return app
}

func (a *testApp) close() {
	a.server.Close()
	a.auditSvc.Close()
	a.redis.Close()
}

func mustToken(t *testing.T, svc ports.TokenService, userID uuid.UUID, role string) string {
	t.Helper()
	token, _, err := svc.Generate(userID, role)
	require.NoError(t, err)
	return token
}

// request sends a JSON request and decodes the JSON response body.
func (a *testApp) request(t *testing.T, method, path, token string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func dataOf(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", resp)
	return data
}

// mintCredits finalizes the seeded project with the given balance via the
// approvals endpoint.
func (a *testApp) mintCredits(t *testing.T, credits int64) {
	t.Helper()
	code, resp := a.request(t, http.MethodPost, "/api/v1/approvals", a.adminToken, map[string]interface{}{
		"project_id":     a.projectID.String(),
		"beneficiary_id": a.contributorID.String(),
		"credits":        credits,
	}, nil)
	require.Equal(t, http.StatusCreated, code, "mint failed: %v", resp)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_PurchaseLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Approval mints the project's full balance.
	code, resp := app.request(t, http.MethodPost, "/api/v1/approvals", app.adminToken, map[string]interface{}{
		"project_id":     app.projectID.String(),
		"beneficiary_id": app.contributorID.String(),
		"credits":        100,
		"proof_ref":      "https://registry.example.org/evidence/42",
	}, nil)
	require.Equal(t, http.StatusCreated, code, "approval failed: %v", resp)
	mint := dataOf(t, resp)
	assert.Equal(t, "MINT", mint["kind"])
	assert.Equal(t, "system", mint["from_party"])
	assert.Equal(t, float64(100), mint["credits"])

	// A second approval for the same project must be rejected.
	code, resp = app.request(t, http.MethodPost, "/api/v1/approvals", app.adminToken, map[string]interface{}{
		"project_id":     app.projectID.String(),
		"beneficiary_id": app.contributorID.String(),
		"credits":        100,
	}, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "LED_005", resp["error_code"])

	// Purchase 60 of the 100 credits with a retry token.
	purchaseBody := map[string]interface{}{
		"contributor_id": app.contributorID.String(),
		"project_id":     app.projectID.String(),
		"credits":        60,
		"amount_paid":    600,
	}
	code, resp = app.request(t, http.MethodPost, "/api/v1/purchases", app.buyerToken, purchaseBody,
		map[string]string{"Idempotency-Key": "order-001"})
	require.Equal(t, http.StatusCreated, code, "purchase failed: %v", resp)
	purchase := dataOf(t, resp)
	assert.Equal(t, float64(40), purchase["project_credits_remaining"])
	assert.Equal(t, float64(60), purchase["buyer_credits_purchased"])
	assert.Equal(t, float64(60), purchase["buyer_reward_points"])

	cert := purchase["credit_transaction"].(map[string]interface{})
	assert.Equal(t, "VALID", cert["status"])
	certID := cert["id"].(string)

	// Retrying with the same key replays the settled result, it does not
	// settle again.
	code, resp = app.request(t, http.MethodPost, "/api/v1/purchases", app.buyerToken, purchaseBody,
		map[string]string{"Idempotency-Key": "order-001"})
	require.Equal(t, http.StatusCreated, code)
	replay := dataOf(t, resp)
	assert.Equal(t, float64(40), replay["project_credits_remaining"])
	assert.Equal(t, certID, replay["credit_transaction"].(map[string]interface{})["id"])

	// Reusing the key with different parameters is a client bug.
	code, resp = app.request(t, http.MethodPost, "/api/v1/purchases", app.buyerToken, map[string]interface{}{
		"contributor_id": app.contributorID.String(),
		"project_id":     app.projectID.String(),
		"credits":        10,
		"amount_paid":    100,
	}, map[string]string{"Idempotency-Key": "order-001"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "LED_003", resp["error_code"])

	// 50 credits exceed the remaining 40.
	code, resp = app.request(t, http.MethodPost, "/api/v1/purchases", app.buyerToken, map[string]interface{}{
		"contributor_id": app.contributorID.String(),
		"project_id":     app.projectID.String(),
		"credits":        50,
		"amount_paid":    500,
	}, map[string]string{"Idempotency-Key": "order-002"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "LED_001", resp["error_code"])

	// Revocation flips the certificate but restores nothing.
	code, resp = app.request(t, http.MethodPost, "/api/v1/certificates/"+certID+"/revoke", app.adminToken,
		map[string]interface{}{"reason": "registry evidence withdrawn"}, nil)
	require.Equal(t, http.StatusOK, code, "revoke failed: %v", resp)
	revoked := dataOf(t, resp)
	assert.Equal(t, "REVOKED", revoked["status"])
	assert.NotEmpty(t, revoked["revoked_at"])

	code, resp = app.request(t, http.MethodPost, "/api/v1/certificates/"+certID+"/revoke", app.adminToken,
		map[string]interface{}{"reason": "twice"}, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "LED_005", resp["error_code"])

	// The remaining 40 credits are still purchasable: revocation did not
	// touch the project balance.
	code, resp = app.request(t, http.MethodPost, "/api/v1/purchases", app.buyerToken, map[string]interface{}{
		"contributor_id": app.contributorID.String(),
		"project_id":     app.projectID.String(),
		"credits":        40,
		"amount_paid":    400,
	}, map[string]string{"Idempotency-Key": "order-003"})
	require.Equal(t, http.StatusCreated, code, "final purchase failed: %v", resp)
	final := dataOf(t, resp)
	assert.Equal(t, float64(0), final["project_credits_remaining"])
	assert.Equal(t, float64(100), final["buyer_credits_purchased"])

	// Every settlement was folded into a block: mint plus two purchases.
	code, resp = app.request(t, http.MethodGet, "/api/v1/chain", "", nil, nil)
	require.Equal(t, http.StatusOK, code)
	chain := resp["data"].([]interface{})
	require.Len(t, chain, 3)
	genesis := chain[0].(map[string]interface{})["block"].(map[string]interface{})
	assert.Equal(t, float64(0), genesis["index"])
	assert.Equal(t, domain.GenesisPreviousHash, genesis["previous_hash"])

	code, resp = app.request(t, http.MethodGet, "/api/v1/chain/verify", "", nil, nil)
	require.Equal(t, http.StatusOK, code)
	verification := dataOf(t, resp)
	assert.Equal(t, "verified", verification["status"])
	assert.Empty(t, verification["findings"])
}

func TestIntegration_PurchaseAuthz(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	body := map[string]interface{}{
		"contributor_id": app.contributorID.String(),
		"project_id":     app.projectID.String(),
		"credits":        10,
		"amount_paid":    100,
	}

	// No token.
	code, _ := app.request(t, http.MethodPost, "/api/v1/purchases", "", body, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Contributors cannot buy.
	code, resp := app.request(t, http.MethodPost, "/api/v1/purchases", app.contributorToken, body, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "AUTH_002", resp["error_code"])

	// Buyers cannot approve.
	code, _ = app.request(t, http.MethodPost, "/api/v1/approvals", app.buyerToken, map[string]interface{}{
		"project_id":     app.projectID.String(),
		"beneficiary_id": app.contributorID.String(),
		"credits":        100,
	}, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestIntegration_SelfDealingRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.mintCredits(t, 100)

	code, resp := app.request(t, http.MethodPost, "/api/v1/purchases", app.buyerToken, map[string]interface{}{
		"contributor_id": app.buyerID.String(),
		"project_id":     app.projectID.String(),
		"credits":        10,
		"amount_paid":    100,
	}, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "LED_007", resp["error_code"])
}

func TestIntegration_MintingToggle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, _ := app.request(t, http.MethodPut, "/api/v1/settings/minting", app.adminToken,
		map[string]interface{}{"enabled": false}, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp := app.request(t, http.MethodPost, "/api/v1/approvals", app.adminToken, map[string]interface{}{
		"project_id":     app.projectID.String(),
		"beneficiary_id": app.contributorID.String(),
		"credits":        100,
	}, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "LED_006", resp["error_code"])

	code, _ = app.request(t, http.MethodPut, "/api/v1/settings/minting", app.adminToken,
		map[string]interface{}{"enabled": true}, nil)
	require.Equal(t, http.StatusOK, code)

	app.mintCredits(t, 100)

	code, resp = app.request(t, http.MethodGet, "/api/v1/settings/minting", app.adminToken, nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, dataOf(t, resp)["enabled"])
}

func TestIntegration_AuditTrail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.mintCredits(t, 100)
	code, _ := app.request(t, http.MethodPost, "/api/v1/purchases", app.buyerToken, map[string]interface{}{
		"contributor_id": app.contributorID.String(),
		"project_id":     app.projectID.String(),
		"credits":        10,
		"amount_paid":    100,
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	// The recent source reads the in-process store and needs no durable
	// write to have landed yet.
	code, resp := app.request(t, http.MethodGet, "/api/v1/audit/logs?source=recent&limit=50", app.adminToken, nil, nil)
	require.Equal(t, http.StatusOK, code)

	entries := resp["data"].([]interface{})
	actions := make(map[string]bool)
	for _, e := range entries {
		actions[e.(map[string]interface{})["action"].(string)] = true
	}
	assert.True(t, actions["CREDITS_MINTED"], "expected CREDITS_MINTED in %v", actions)
	assert.True(t, actions["PURCHASE"], "expected PURCHASE in %v", actions)
}
