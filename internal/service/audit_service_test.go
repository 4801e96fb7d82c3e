package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carbon-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyAuditRepo fails every Create while failing is set, then recovers.
type flakyAuditRepo struct {
	mu      sync.Mutex
	failing bool
	entries []domain.AuditLogEntry
}

func (r *flakyAuditRepo) Create(_ context.Context, entry *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("store unavailable")
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *flakyAuditRepo) List(_ context.Context, limit int) ([]domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	if limit < n {
		n = limit
	}
	out := make([]domain.AuditLogEntry, n)
	copy(out, r.entries[len(r.entries)-n:])
	return out, nil
}

func (r *flakyAuditRepo) setFailing(f bool) {
	r.mu.Lock()
	r.failing = f
	r.mu.Unlock()
}

func (r *flakyAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func entry(action domain.AuditAction) *domain.AuditLogEntry {
	userID := uuid.New()
	return &domain.AuditLogEntry{
		UserID:     &userID,
		Action:     action,
		EntityType: "project",
		EntityID:   uuid.New().String(),
	}
}

func TestAuditLogService_Record_Persists(t *testing.T) {
	repo := &flakyAuditRepo{}
	svc := NewAuditLogService(repo, 16, 100, 50*time.Millisecond, zerolog.Nop())

	svc.Record(context.Background(), entry(domain.AuditActionPurchase))
	svc.Close()

	require.Equal(t, 1, repo.count())
	assert.Equal(t, domain.AuditActionPurchase, repo.entries[0].Action)
	assert.NotEqual(t, uuid.Nil, repo.entries[0].ID)
	assert.False(t, repo.entries[0].CreatedAt.IsZero())
}

func TestAuditLogService_Record_NeverBlocksOnFailure(t *testing.T) {
	repo := &flakyAuditRepo{failing: true}
	svc := NewAuditLogService(repo, 16, 100, time.Hour, zerolog.Nop())
	defer svc.Close()

	// Record never surfaces the store failure to the caller.
	for i := 0; i < 10; i++ {
		svc.Record(context.Background(), entry(domain.AuditActionCreditsMinted))
	}

	// The recent in-process store still has everything.
	assert.Len(t, svc.Recent(100), 10)
}

func TestAuditLogService_FlushAfterRecovery(t *testing.T) {
	repo := &flakyAuditRepo{failing: true}
	svc := NewAuditLogService(repo, 16, 100, 20*time.Millisecond, zerolog.Nop())

	svc.Record(context.Background(), entry(domain.AuditActionPurchase))
	svc.Record(context.Background(), entry(domain.AuditActionCertificateRevoked))

	// Wait until both writes have failed and queued.
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.queue) == 2
	}, 2*time.Second, 5*time.Millisecond)

	repo.setFailing(false)

	require.Eventually(t, func() bool {
		return repo.count() == 2
	}, 2*time.Second, 5*time.Millisecond)

	svc.Close()
	assert.Equal(t, 2, repo.count())
}

func TestAuditLogService_QueueDropsOldestWhenFull(t *testing.T) {
	repo := &flakyAuditRepo{failing: true}
	svc := NewAuditLogService(repo, 4, 100, time.Hour, zerolog.Nop())
	defer svc.Close()

	for i := 0; i < 10; i++ {
		svc.Record(context.Background(), entry(domain.AuditActionPurchase))
	}

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.queue) == 4
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAuditLogService_Recent_NewestFirstAndBounded(t *testing.T) {
	repo := &flakyAuditRepo{}
	svc := NewAuditLogService(repo, 16, 5, time.Hour, zerolog.Nop())
	defer svc.Close()

	for i := 0; i < 8; i++ {
		e := entry(domain.AuditActionPurchase)
		e.EntityID = string(rune('a' + i))
		svc.Record(context.Background(), e)
	}

	recent := svc.Recent(100)
	require.Len(t, recent, 5) // ring capacity
	assert.Equal(t, "h", recent[0].EntityID)
	assert.Equal(t, "d", recent[4].EntityID)

	top2 := svc.Recent(2)
	require.Len(t, top2, 2)
	assert.Equal(t, "h", top2[0].EntityID)
}

func TestAuditLogService_ConcurrentRecord(t *testing.T) {
	repo := &flakyAuditRepo{}
	svc := NewAuditLogService(repo, 1024, 1000, 50*time.Millisecond, zerolog.Nop())

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			svc.Record(context.Background(), entry(domain.AuditActionPurchase))
		}()
	}
	wg.Wait()
	svc.Close()

	assert.Equal(t, n, repo.count())
	assert.Len(t, svc.Recent(n), n)
}

func TestAuditLogService_NilRepo(t *testing.T) {
	svc := NewAuditLogService(nil, 16, 100, time.Hour, zerolog.Nop())
	defer svc.Close()

	// Should not panic
	svc.Record(context.Background(), entry(domain.AuditActionLogin))
	assert.Len(t, svc.Recent(10), 1)
}
