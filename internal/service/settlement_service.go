package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carbon-ledger/config"
	"carbon-ledger/internal/core/domain"
	"carbon-ledger/internal/core/ports"
	"carbon-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	pgUniqueViolation   = "23505"
	purchaseCacheTTL    = 24 * time.Hour
	purchaseCachePrefix = "purchase:idem:"
)

// SettlementServiceImpl implements ports.SettlementService: the only code
// path allowed to mutate balances, and the only producer of ledger
// transactions.
type SettlementServiceImpl struct {
	transactor   ports.DBTransactor
	txRepo       ports.TransactionRepository
	creditRepo   ports.CreditTransactionRepository
	rewardRepo   ports.RewardTransactionRepository
	projectRepo  ports.ProjectRepository
	userRepo     ports.UserRepository
	settingsRepo ports.SettingsRepository
	blockBuilder ports.BlockBuilder
	crypto       ports.ChainCrypto
	idemCache    ports.IdempotencyCache
	audit        ports.AuditService
	reward       config.RewardConfig
	log          zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	transactor ports.DBTransactor,
	txRepo ports.TransactionRepository,
	creditRepo ports.CreditTransactionRepository,
	rewardRepo ports.RewardTransactionRepository,
	projectRepo ports.ProjectRepository,
	userRepo ports.UserRepository,
	settingsRepo ports.SettingsRepository,
	blockBuilder ports.BlockBuilder,
	crypto ports.ChainCrypto,
	idemCache ports.IdempotencyCache,
	audit ports.AuditService,
	reward config.RewardConfig,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		transactor:   transactor,
		txRepo:       txRepo,
		creditRepo:   creditRepo,
		rewardRepo:   rewardRepo,
		projectRepo:  projectRepo,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		blockBuilder: blockBuilder,
		crypto:       crypto,
		idemCache:    idemCache,
		audit:        audit,
		reward:       reward,
		log:          log,
	}
}

// RecordApproval settles a project-approval event: it mints the project's
// credits as a single ledger transaction, sets the project's available
// balance and finalizes it. A project can be minted exactly once.
func (s *SettlementServiceImpl) RecordApproval(ctx context.Context, req ports.ApprovalRequest) (*domain.Transaction, error) {
	if req.Credits <= 0 {
		return nil, apperror.ErrInvalidCredits()
	}

	enabled, err := s.settingsRepo.MintingEnabled(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read minting flag: %w", err))
	}
	if !enabled {
		return nil, apperror.ErrMintingDisabled()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	project, err := s.projectRepo.GetByIDForUpdate(ctx, dbTx, req.ProjectID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock project: %w", err))
	}
	if project == nil {
		return nil, apperror.ErrNotFound("Project")
	}
	if project.Status == domain.ProjectStatusFinalized {
		return nil, apperror.ErrInvalidState("Credits have already been issued for this project")
	}
	if !project.Approvable() {
		return nil, apperror.ErrInvalidState("Project is not in an approved state")
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:        uuid.New(),
		TxID:      s.crypto.DeriveTxID(req.ProjectID.String(), req.BeneficiaryID.String(), req.Credits, now),
		Kind:      domain.TransactionKindMint,
		FromParty: domain.SystemParty,
		ToParty:   req.BeneficiaryID.String(),
		Credits:   req.Credits,
		ProjectID: req.ProjectID,
		Timestamp: now,
		ProofHash: s.crypto.Hash([]byte(req.ProofRef)),
		Status:    domain.TransactionStatusCompleted,
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create mint transaction: %w", err))
	}
	if err := s.projectRepo.SetIssuedCredits(ctx, dbTx, project.ID, req.Credits); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("set issued credits: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("project_id", req.ProjectID.String()).
		Int64("credits", req.Credits).
		Str("tx_id", txn.TxID).
		Msg("credits minted")

	s.audit.Record(ctx, &domain.AuditLogEntry{
		UserID:     &req.BeneficiaryID,
		Action:     domain.AuditActionCreditsMinted,
		EntityType: "project",
		EntityID:   req.ProjectID.String(),
		Metadata:   fmt.Sprintf(`{"credits":%d,"tx_id":"%s"}`, req.Credits, txn.TxID),
	})

	s.buildBlock(ctx)

	return txn, nil
}

// Purchase settles a credit purchase as one atomic unit: balance check and
// decrement, buyer totals, reward grants, certificate record and the BUY
// ledger transaction all commit or roll back together. An idempotency key
// makes the whole operation safely retryable.
func (s *SettlementServiceImpl) Purchase(ctx context.Context, req ports.PurchaseRequest) (*ports.PurchaseResult, error) {
	if req.Credits <= 0 {
		return nil, apperror.ErrInvalidCredits()
	}
	if req.AmountPaid < 0 {
		return nil, apperror.Validation("Amount paid must not be negative")
	}
	if req.BuyerID == req.ContributorID {
		return nil, apperror.ErrSelfDealing()
	}

	var scopedKey string
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		scopedKey = domain.BuildPurchaseIdempotencyKey(req.BuyerID, *req.IdempotencyKey)

		// Fast path: a completed result cached from a prior attempt.
		if cached, err := s.idemCache.Get(ctx, purchaseCachePrefix+scopedKey); err == nil && cached != nil {
			var result ports.PurchaseResult
			if err := json.Unmarshal(cached, &result); err == nil {
				if result.CreditTransaction != nil &&
					result.CreditTransaction.MatchesRequest(req.BuyerID, req.ContributorID, req.ProjectID, req.Credits, req.AmountPaid) {
					s.log.Debug().Str("idempotency_key", scopedKey).Msg("purchase replayed from cache")
					return &result, nil
				}
				return nil, apperror.ErrDuplicateIdempotencyKey()
			}
		}

		// Durable path: the cache may have expired or missed.
		existing, err := s.creditRepo.GetByIdempotencyKey(ctx, scopedKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lookup idempotency key: %w", err))
		}
		if existing != nil {
			return s.replayPurchase(ctx, req, existing)
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock order: project, then buyer, then contributor. Every writer takes
	// rows in this order, so concurrent purchases cannot deadlock.
	project, err := s.projectRepo.GetByIDForUpdate(ctx, dbTx, req.ProjectID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock project: %w", err))
	}
	if project == nil {
		return nil, apperror.ErrNotFound("Project")
	}
	if project.Status != domain.ProjectStatusFinalized {
		return nil, apperror.ErrInvalidState("Project credits have not been issued yet")
	}
	if project.ContributorID != req.ContributorID {
		return nil, apperror.Validation("Contributor does not own this project")
	}
	if project.CreditsEarned < req.Credits {
		return nil, apperror.ErrInsufficientCredits()
	}

	buyer, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, req.BuyerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock buyer: %w", err))
	}
	if buyer == nil {
		return nil, apperror.ErrNotFound("Buyer")
	}
	contributor, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, req.ContributorID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock contributor: %w", err))
	}
	if contributor == nil {
		return nil, apperror.ErrNotFound("Contributor")
	}

	buyerPoints := req.Credits * s.reward.BuyerPointsPerCredit
	contributorPoints := req.Credits * s.reward.ContributorPointsPerCredit

	if err := s.projectRepo.UpdateCreditsEarned(ctx, dbTx, project.ID, project.CreditsEarned-req.Credits); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decrement project balance: %w", err))
	}
	if err := s.userRepo.AddPurchaseTotals(ctx, dbTx, buyer.ID, req.Credits, buyerPoints); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update buyer totals: %w", err))
	}
	if err := s.userRepo.AddRewardPoints(ctx, dbTx, contributor.ID, contributorPoints); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update contributor points: %w", err))
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:        uuid.New(),
		TxID:      s.crypto.DeriveTxID(req.ProjectID.String(), req.BuyerID.String(), req.Credits, now),
		Kind:      domain.TransactionKindBuy,
		FromParty: req.ContributorID.String(),
		ToParty:   req.BuyerID.String(),
		Credits:   req.Credits,
		ProjectID: req.ProjectID,
		Timestamp: now,
		ProofHash: s.crypto.Hash(nil),
		Status:    domain.TransactionStatusCompleted,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create buy transaction: %w", err))
	}

	creditTx := &domain.CreditTransaction{
		ID:            uuid.New(),
		BuyerID:       req.BuyerID,
		ContributorID: req.ContributorID,
		ProjectID:     req.ProjectID,
		Credits:       req.Credits,
		AmountPaid:    req.AmountPaid,
		Status:        domain.CertificateStatusValid,
		LedgerTxID:    txn.ID,
		CreatedAt:     now,
	}
	if scopedKey != "" {
		creditTx.IdempotencyKey = &scopedKey
	}
	if err := s.creditRepo.Create(ctx, dbTx, creditTx); err != nil {
		// A concurrent request with the same key won the race: the unique
		// index rejects the second insert. Replay the winner's result.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && scopedKey != "" {
			_ = dbTx.Rollback(ctx)
			existing, lookupErr := s.creditRepo.GetByIdempotencyKey(ctx, scopedKey)
			if lookupErr == nil && existing != nil {
				return s.replayPurchase(ctx, req, existing)
			}
		}
		return nil, apperror.InternalError(fmt.Errorf("create credit transaction: %w", err))
	}

	grants := []*domain.RewardTransaction{
		{ID: uuid.New(), UserID: buyer.ID, Points: buyerPoints, Kind: domain.RewardKindGrant, SourceTransactionID: creditTx.ID, CreatedAt: now},
		{ID: uuid.New(), UserID: contributor.ID, Points: contributorPoints, Kind: domain.RewardKindGrant, SourceTransactionID: creditTx.ID, CreatedAt: now},
	}
	for _, g := range grants {
		if err := s.rewardRepo.Create(ctx, dbTx, g); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create reward grant: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	result := &ports.PurchaseResult{
		Transaction:             txn,
		CreditTransaction:       creditTx,
		ProjectCreditsRemaining: project.CreditsEarned - req.Credits,
		BuyerCreditsPurchased:   buyer.CreditsPurchased + req.Credits,
		BuyerRewardPoints:       buyer.RewardPoints + buyerPoints,
	}

	s.log.Info().
		Str("buyer_id", req.BuyerID.String()).
		Str("project_id", req.ProjectID.String()).
		Int64("credits", req.Credits).
		Int64("remaining", result.ProjectCreditsRemaining).
		Msg("purchase settled")

	s.audit.Record(ctx, &domain.AuditLogEntry{
		UserID:     &req.BuyerID,
		Action:     domain.AuditActionPurchase,
		EntityType: "credit_transaction",
		EntityID:   creditTx.ID.String(),
		Metadata:   fmt.Sprintf(`{"credits":%d,"amount_paid":%d,"project_id":"%s"}`, req.Credits, req.AmountPaid, req.ProjectID),
	})

	s.buildBlock(ctx)
	s.cachePurchase(ctx, scopedKey, result)

	return result, nil
}

// RevokeCertificate flips a purchase certificate to revoked. Revocation is a
// downstream annotation only: the ledger transaction and any block it sits in
// are never touched, and balances are not restored.
func (s *SettlementServiceImpl) RevokeCertificate(ctx context.Context, id uuid.UUID, reason string) (*domain.CreditTransaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	ct, err := s.creditRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock credit transaction: %w", err))
	}
	if ct == nil {
		return nil, apperror.ErrNotFound("Certificate")
	}
	if !ct.Revocable() {
		return nil, apperror.ErrInvalidState("Certificate has already been revoked")
	}

	if err := s.creditRepo.Revoke(ctx, dbTx, id, reason); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("revoke certificate: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	now := time.Now().UTC()
	ct.Status = domain.CertificateStatusRevoked
	ct.RevokedAt = &now
	ct.RevokeReason = reason

	s.log.Info().Str("credit_tx_id", id.String()).Str("reason", reason).Msg("certificate revoked")

	s.audit.Record(ctx, &domain.AuditLogEntry{
		Action:     domain.AuditActionCertificateRevoked,
		EntityType: "credit_transaction",
		EntityID:   id.String(),
		Metadata:   fmt.Sprintf(`{"reason":%q}`, reason),
	})

	return ct, nil
}

// RollbackTransaction compensates a settled purchase. The original ledger
// entry is never rewritten beyond its status flag: a new ROLLBACK transaction
// returns the credits to the project, the exact reward grants the purchase
// produced are reversed, and the certificate is revoked.
func (s *SettlementServiceImpl) RollbackTransaction(ctx context.Context, txID, reason string) (*ports.RollbackResult, error) {
	original, err := s.txRepo.GetByTxID(ctx, txID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load transaction: %w", err))
	}
	if original == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	if original.Kind != domain.TransactionKindBuy {
		return nil, apperror.ErrInvalidState("Only purchase transactions can be rolled back")
	}
	if original.Status != domain.TransactionStatusCompleted {
		return nil, apperror.ErrInvalidState("Transaction has already been rolled back")
	}

	buyerID, err := uuid.Parse(original.ToParty)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("parse buyer party: %w", err))
	}
	contributorID, err := uuid.Parse(original.FromParty)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("parse contributor party: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Same lock order as purchase: project, then buyer, then contributor.
	project, err := s.projectRepo.GetByIDForUpdate(ctx, dbTx, original.ProjectID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock project: %w", err))
	}
	if project == nil {
		return nil, apperror.ErrNotFound("Project")
	}
	buyer, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, buyerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock buyer: %w", err))
	}
	if buyer == nil {
		return nil, apperror.ErrNotFound("Buyer")
	}
	contributor, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, contributorID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock contributor: %w", err))
	}
	if contributor == nil {
		return nil, apperror.ErrNotFound("Contributor")
	}

	cert, err := s.creditRepo.GetByLedgerTxID(ctx, dbTx, original.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock certificate: %w", err))
	}
	if cert == nil {
		return nil, apperror.InternalError(fmt.Errorf("no certificate recorded for transaction %s", original.ID))
	}

	// Reverse the grants this purchase actually produced, not whatever the
	// current reward rates would yield.
	grants, err := s.rewardRepo.ListBySource(ctx, cert.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load reward grants: %w", err))
	}
	var buyerPoints, contributorPoints int64
	for _, g := range grants {
		if g.Kind != domain.RewardKindGrant {
			continue
		}
		switch g.UserID {
		case buyer.ID:
			buyerPoints += g.Points
		case contributor.ID:
			contributorPoints += g.Points
		}
	}

	if err := s.projectRepo.UpdateCreditsEarned(ctx, dbTx, project.ID, project.CreditsEarned+original.Credits); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("restore project balance: %w", err))
	}
	if err := s.userRepo.AddPurchaseTotals(ctx, dbTx, buyer.ID, -original.Credits, -buyerPoints); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reverse buyer totals: %w", err))
	}
	if err := s.userRepo.AddRewardPoints(ctx, dbTx, contributor.ID, -contributorPoints); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reverse contributor points: %w", err))
	}

	now := time.Now().UTC()
	compensation := &domain.Transaction{
		ID:        uuid.New(),
		TxID:      s.crypto.DeriveTxID(original.ProjectID.String(), contributorID.String(), original.Credits, now),
		Kind:      domain.TransactionKindRollback,
		FromParty: buyerID.String(),
		ToParty:   contributorID.String(),
		Credits:   original.Credits,
		ProjectID: original.ProjectID,
		Timestamp: now,
		ProofHash: s.crypto.Hash([]byte(reason)),
		Status:    domain.TransactionStatusCompleted,
	}
	if err := s.txRepo.Create(ctx, dbTx, compensation); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create rollback transaction: %w", err))
	}
	if err := s.txRepo.UpdateStatus(ctx, dbTx, original.ID, domain.TransactionStatusRolledBack); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark transaction rolled back: %w", err))
	}

	if cert.Revocable() {
		if err := s.creditRepo.Revoke(ctx, dbTx, cert.ID, reason); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("revoke certificate: %w", err))
		}
	}

	reversals := make([]*domain.RewardTransaction, 0, 2)
	if buyerPoints != 0 {
		reversals = append(reversals, &domain.RewardTransaction{
			ID: uuid.New(), UserID: buyer.ID, Points: -buyerPoints,
			Kind: domain.RewardKindReversal, SourceTransactionID: cert.ID, CreatedAt: now,
		})
	}
	if contributorPoints != 0 {
		reversals = append(reversals, &domain.RewardTransaction{
			ID: uuid.New(), UserID: contributor.ID, Points: -contributorPoints,
			Kind: domain.RewardKindReversal, SourceTransactionID: cert.ID, CreatedAt: now,
		})
	}
	for _, rev := range reversals {
		if err := s.rewardRepo.Create(ctx, dbTx, rev); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create reward reversal: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	original.Status = domain.TransactionStatusRolledBack

	s.log.Info().
		Str("tx_id", txID).
		Int64("credits", original.Credits).
		Str("reason", reason).
		Msg("purchase rolled back")

	s.audit.Record(ctx, &domain.AuditLogEntry{
		UserID:     &buyerID,
		Action:     domain.AuditActionTxRolledBack,
		EntityType: "transaction",
		EntityID:   original.ID.String(),
		Metadata:   fmt.Sprintf(`{"tx_id":%q,"credits":%d,"reason":%q}`, txID, original.Credits, reason),
	})

	s.buildBlock(ctx)

	return &ports.RollbackResult{
		Transaction:             compensation,
		OriginalTransaction:     original,
		ProjectCreditsRemaining: project.CreditsEarned + original.Credits,
	}, nil
}

// replayPurchase reconstructs the result of an already-settled purchase. A
// replay with different parameters under the same key is a client bug and is
// rejected instead of silently returning someone else's purchase.
func (s *SettlementServiceImpl) replayPurchase(ctx context.Context, req ports.PurchaseRequest, stored *domain.CreditTransaction) (*ports.PurchaseResult, error) {
	if !stored.MatchesRequest(req.BuyerID, req.ContributorID, req.ProjectID, req.Credits, req.AmountPaid) {
		return nil, apperror.ErrDuplicateIdempotencyKey()
	}

	txn, err := s.txRepo.GetByID(ctx, stored.LedgerTxID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load ledger transaction: %w", err))
	}
	project, err := s.projectRepo.GetByID(ctx, stored.ProjectID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load project: %w", err))
	}
	buyer, err := s.userRepo.GetByID(ctx, stored.BuyerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load buyer: %w", err))
	}

	result := &ports.PurchaseResult{
		Transaction:       txn,
		CreditTransaction: stored,
	}
	if project != nil {
		result.ProjectCreditsRemaining = project.CreditsEarned
	}
	if buyer != nil {
		result.BuyerCreditsPurchased = buyer.CreditsPurchased
		result.BuyerRewardPoints = buyer.RewardPoints
	}

	s.log.Debug().Str("credit_tx_id", stored.ID.String()).Msg("purchase replayed from store")
	return result, nil
}

// buildBlock folds pending transactions into a block after a settlement
// commits. Block building failing never fails the settlement: the
// transactions stay unattached and the next build picks them up.
func (s *SettlementServiceImpl) buildBlock(ctx context.Context) {
	if _, err := s.blockBuilder.BuildPendingBlock(ctx); err != nil {
		s.log.Warn().Err(err).Msg("block build after settlement failed, transactions remain pending")
	}
}

// cachePurchase stores the settled result for the idempotency fast path.
// Best effort: the durable unique key is the correctness backstop.
func (s *SettlementServiceImpl) cachePurchase(ctx context.Context, scopedKey string, result *ports.PurchaseResult) {
	if scopedKey == "" {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.idemCache.Set(ctx, purchaseCachePrefix+scopedKey, payload, purchaseCacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache purchase result")
	}
}
