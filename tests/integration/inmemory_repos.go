package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	seq          int
	order        map[uuid.UUID]int
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		order:        make(map[uuid.UUID]int),
		transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	r.order[t.ID] = r.seq
	r.seq++
	id := t.ID
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.transactions, id)
		delete(r.order, id)
	})
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByTxID(ctx context.Context, txID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.TxID == txID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ListUnattached(ctx context.Context, tx pgx.Tx) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.BlockID == nil {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return r.order[result[i].ID] < r.order[result[j].ID]
	})
	return result, nil
}

func (r *inMemoryTransactionRepo) AttachToBlock(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, blockID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		t, ok := r.transactions[id]
		if !ok || t.BlockID != nil {
			return fmt.Errorf("transaction %s not attachable", id)
		}
		b := blockID
		t.BlockID = &b
		tid := id
		journalUndo(tx, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if txn, ok := r.transactions[tid]; ok {
				txn.BlockID = nil
			}
		})
	}
	return nil
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not found: %s", id)
	}
	prev := t.Status
	t.Status = status
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if txn, ok := r.transactions[id]; ok {
			txn.Status = prev
		}
	})
	return nil
}

func (r *inMemoryTransactionRepo) ListByBlockID(ctx context.Context, blockID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.BlockID != nil && *t.BlockID == blockID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return r.order[result[i].ID] < r.order[result[j].ID]
	})
	return result, nil
}

// tamper rewrites a stored transaction's TxID in place, bypassing the
// insert-only contract, to simulate direct data-store manipulation.
func (r *inMemoryTransactionRepo) tamper(id uuid.UUID, txID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.transactions[id]; ok {
		t.TxID = txID
	}
}

// --- In-Memory Block Repo ---

type inMemoryBlockRepo struct {
	mu     sync.RWMutex
	blocks map[uuid.UUID]*domain.Block
}

func newInMemoryBlockRepo() *inMemoryBlockRepo {
	return &inMemoryBlockRepo{blocks: make(map[uuid.UUID]*domain.Block)}
}

func (r *inMemoryBlockRepo) Create(ctx context.Context, tx pgx.Tx, b *domain.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.blocks[b.ID] = &cp
	id := b.ID
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.blocks, id)
	})
	return nil
}

func (r *inMemoryBlockRepo) GetLatest(ctx context.Context, tx pgx.Tx) (*domain.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.Block
	for _, b := range r.blocks {
		if latest == nil || b.Index > latest.Index {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *inMemoryBlockRepo) ListAll(ctx context.Context) ([]domain.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Block, 0, len(r.blocks))
	for _, b := range r.blocks {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result, nil
}

// tamper rewrites a stored block's hash in place.
func (r *inMemoryBlockRepo) tamper(id uuid.UUID, mutate func(*domain.Block)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.blocks[id]; ok {
		mutate(b)
	}
}

// remove deletes a stored block outright, simulating a dropped row.
func (r *inMemoryBlockRepo) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocks, id)
}

// --- In-Memory Credit Transaction Repo ---

type inMemoryCreditRepo struct {
	mu      sync.RWMutex
	credits map[uuid.UUID]*domain.CreditTransaction
}

func newInMemoryCreditRepo() *inMemoryCreditRepo {
	return &inMemoryCreditRepo{credits: make(map[uuid.UUID]*domain.CreditTransaction)}
}

func (r *inMemoryCreditRepo) Create(ctx context.Context, tx pgx.Tx, ct *domain.CreditTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ct.IdempotencyKey != nil {
		for _, existing := range r.credits {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *ct.IdempotencyKey {
				// Mirror the unique-index violation the durable store raises.
				return &pgconn.PgError{Code: "23505", ConstraintName: "credit_transactions_idempotency_key_key"}
			}
		}
	}
	cp := *ct
	r.credits[ct.ID] = &cp
	id := ct.ID
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.credits, id)
	})
	return nil
}

func (r *inMemoryCreditRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct, ok := r.credits[id]
	if !ok {
		return nil, nil
	}
	cp := *ct
	return &cp, nil
}

func (r *inMemoryCreditRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CreditTransaction, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryCreditRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.CreditTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ct := range r.credits {
		if ct.IdempotencyKey != nil && *ct.IdempotencyKey == key {
			cp := *ct
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCreditRepo) GetByLedgerTxID(ctx context.Context, tx pgx.Tx, ledgerTxID uuid.UUID) (*domain.CreditTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ct := range r.credits {
		if ct.LedgerTxID == ledgerTxID {
			cp := *ct
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCreditRepo) Revoke(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ct, ok := r.credits[id]
	if !ok || ct.Status != domain.CertificateStatusValid {
		return fmt.Errorf("credit transaction not revocable: %s", id)
	}
	prevStatus, prevAt, prevReason := ct.Status, ct.RevokedAt, ct.RevokeReason
	now := time.Now().UTC()
	ct.Status = domain.CertificateStatusRevoked
	ct.RevokedAt = &now
	ct.RevokeReason = reason
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.credits[id]; ok {
			c.Status, c.RevokedAt, c.RevokeReason = prevStatus, prevAt, prevReason
		}
	})
	return nil
}

func (r *inMemoryCreditRepo) SumCreditsByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, ct := range r.credits {
		if ct.ProjectID == projectID {
			total += ct.Credits
		}
	}
	return total, nil
}

// --- In-Memory Reward Repo ---

type inMemoryRewardRepo struct {
	mu      sync.RWMutex
	rewards []domain.RewardTransaction
}

func newInMemoryRewardRepo() *inMemoryRewardRepo {
	return &inMemoryRewardRepo{}
}

func (r *inMemoryRewardRepo) Create(ctx context.Context, tx pgx.Tx, rt *domain.RewardTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rewards = append(r.rewards, *rt)
	id := rt.ID
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i := len(r.rewards) - 1; i >= 0; i-- {
			if r.rewards[i].ID == id {
				r.rewards = append(r.rewards[:i], r.rewards[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (r *inMemoryRewardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.RewardTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.RewardTransaction
	for _, rt := range r.rewards {
		if rt.UserID == userID {
			result = append(result, rt)
		}
	}
	return result, nil
}

func (r *inMemoryRewardRepo) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]domain.RewardTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.RewardTransaction
	for _, rt := range r.rewards {
		if rt.SourceTransactionID == sourceID {
			result = append(result, rt)
		}
	}
	return result, nil
}

// --- In-Memory Project Repo ---

type inMemoryProjectRepo struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*domain.Project
}

func newInMemoryProjectRepo() *inMemoryProjectRepo {
	return &inMemoryProjectRepo{projects: make(map[uuid.UUID]*domain.Project)}
}

func (r *inMemoryProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *inMemoryProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryProjectRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Project, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryProjectRepo) SetIssuedCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.Status != domain.ProjectStatusApproved {
		return fmt.Errorf("project not in approved state: %s", id)
	}
	prevCredits, prevStatus := p.CreditsEarned, p.Status
	p.CreditsEarned = credits
	p.Status = domain.ProjectStatusFinalized
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if pr, ok := r.projects[id]; ok {
			pr.CreditsEarned, pr.Status = prevCredits, prevStatus
		}
	})
	return nil
}

func (r *inMemoryProjectRepo) UpdateCreditsEarned(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("project not found: %s", id)
	}
	prev := p.CreditsEarned
	p.CreditsEarned = credits
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if pr, ok := r.projects[id]; ok {
			pr.CreditsEarned = prev
		}
	})
	return nil
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryUserRepo) AddPurchaseTotals(ctx context.Context, tx pgx.Tx, id uuid.UUID, credits, points int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	u.CreditsPurchased += credits
	u.RewardPoints += points
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if usr, ok := r.users[id]; ok {
			usr.CreditsPurchased -= credits
			usr.RewardPoints -= points
		}
	})
	return nil
}

func (r *inMemoryUserRepo) AddRewardPoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, points int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	u.RewardPoints += points
	journalUndo(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if usr, ok := r.users[id]; ok {
			usr.RewardPoints -= points
		}
	})
	return nil
}

// --- In-Memory Settings Repo ---

type inMemorySettingsRepo struct {
	mu      sync.RWMutex
	set     bool
	enabled bool
}

func newInMemorySettingsRepo() *inMemorySettingsRepo {
	return &inMemorySettingsRepo{}
}

func (r *inMemorySettingsRepo) MintingEnabled(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.set {
		return true, nil
	}
	return r.enabled, nil
}

func (r *inMemorySettingsRepo) SetMintingEnabled(ctx context.Context, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = true
	r.enabled = enabled
	return nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.RWMutex
	entries []domain.AuditLogEntry
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryAuditRepo) List(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]domain.AuditLogEntry, 0, n)
	for i := len(r.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, r.entries[i])
	}
	return result, nil
}

// --- Locking Transactor ---

// lockingTransactor serializes whole settlement units behind one mutex, the
// in-memory stand-in for row-level FOR UPDATE locking: reads made after Begin
// cannot go stale before Commit.
type lockingTransactor struct {
	mu sync.Mutex
}

func newLockingTransactor() *lockingTransactor {
	return &lockingTransactor{}
}

func (t *lockingTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockTx{release: &t.mu}, nil
}

// lockTx journals a compensation for every repo write made inside the unit
// and runs them, newest first, when the unit rolls back; Commit discards the
// journal. The transactor mutex is released exactly once, on Commit or
// Rollback, so the settlement engine's deferred Rollback after a successful
// Commit stays harmless.
type lockTx struct {
	release *sync.Mutex
	once    sync.Once
	undo    []func()
}

// journal registers the compensation for one write. Only called while the
// unit holds the transactor mutex, so the slice needs no extra locking.
func (t *lockTx) journal(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *lockTx) finish(rollback bool) {
	t.once.Do(func() {
		if rollback {
			for i := len(t.undo) - 1; i >= 0; i-- {
				t.undo[i]()
			}
		}
		t.undo = nil
		t.release.Unlock()
	})
}

// journalUndo attaches a compensation when the write runs inside a locking
// transactor unit; writes outside any unit are applied directly.
func journalUndo(tx pgx.Tx, fn func()) {
	if lt, ok := tx.(*lockTx); ok {
		lt.journal(fn)
	}
}

func (t *lockTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *lockTx) Commit(ctx context.Context) error { t.finish(false); return nil }

func (t *lockTx) Rollback(ctx context.Context) error { t.finish(true); return nil }

func (t *lockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *lockTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *lockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockTx) Conn() *pgx.Conn { return nil }
