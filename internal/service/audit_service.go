package service

import (
	"context"
	"sync"
	"time"

	"carbon-ledger/internal/core/domain"
	"carbon-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const persistTimeout = 3 * time.Second

// AuditLogService implements ports.AuditService. Recording is fire-and-forget:
// the entry lands in an in-process recent store immediately and is persisted
// asynchronously. When the database is unavailable, entries accumulate in a
// bounded retry queue (oldest dropped on overflow) that a background ticker
// flushes once the store recovers. Record never returns an error and never
// blocks the caller's primary operation.
type AuditLogService struct {
	repo ports.AuditLogRepository
	log  zerolog.Logger

	mu          sync.Mutex
	recent      []domain.AuditLogEntry // ring, newest at the end
	recentLimit int
	queue       []domain.AuditLogEntry // pending durable writes
	queueCap    int
	flushing    bool

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewAuditLogService creates the audit service and starts its flush loop.
func NewAuditLogService(repo ports.AuditLogRepository, queueCap, recentLimit int, flushInterval time.Duration, log zerolog.Logger) *AuditLogService {
	if queueCap <= 0 {
		queueCap = 1024
	}
	if recentLimit <= 0 {
		recentLimit = 1000
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}

	s := &AuditLogService{
		repo:        repo,
		log:         log,
		recentLimit: recentLimit,
		queueCap:    queueCap,
		ticker:      time.NewTicker(flushInterval),
		done:        make(chan struct{}),
	}

	s.wg.Add(1)
	go s.flushLoop()

	return s
}

// Record accepts an audit entry. It fills in ID and CreatedAt, stores the
// entry in the recent ring and hands persistence to a background goroutine.
func (s *AuditLogService) Record(ctx context.Context, entry *domain.AuditLogEntry) {
	if entry == nil {
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	e := *entry

	s.mu.Lock()
	s.recent = append(s.recent, e)
	if len(s.recent) > s.recentLimit {
		s.recent = s.recent[len(s.recent)-s.recentLimit:]
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.persist(e)
	}()
}

// Recent returns up to n entries from the in-process store, newest first.
func (s *AuditLogService) Recent(n int) []domain.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.recent) {
		n = len(s.recent)
	}
	out := make([]domain.AuditLogEntry, n)
	for i := 0; i < n; i++ {
		out[i] = s.recent[len(s.recent)-1-i]
	}
	return out
}

// Close stops the flush loop, waits for in-flight persists and attempts one
// final flush of anything still queued.
func (s *AuditLogService) Close() {
	close(s.done)
	s.ticker.Stop()
	s.wg.Wait()
	s.flush()
}

// persist writes one entry durably, falling back to the retry queue.
// The caller's request context is deliberately not used: audit persistence
// must survive the request being cancelled.
func (s *AuditLogService) persist(e domain.AuditLogEntry) {
	if s.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, &e); err != nil {
		s.enqueue(e)
		s.log.Warn().Err(err).Str("action", string(e.Action)).Msg("audit write failed, queued for retry")
	}
}

// enqueue adds an entry to the bounded retry queue, dropping the oldest
// entry when full. Losing the oldest audit entry under sustained outage is
// preferred over unbounded memory growth.
func (s *AuditLogService) enqueue(e domain.AuditLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) >= s.queueCap {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, e)
}

func (s *AuditLogService) flushLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.flush()
		}
	}
}

// flush drains the retry queue. A single flusher runs at a time; entries
// that fail again are re-queued.
func (s *AuditLogService) flush() {
	if s.repo == nil {
		return
	}
	s.mu.Lock()
	if s.flushing || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout*time.Duration(len(batch)))
	defer cancel()

	flushed := 0
	for i, e := range batch {
		if err := s.repo.Create(ctx, &e); err != nil {
			// Store is still down, put the remainder back and stop.
			s.mu.Lock()
			remainder := batch[i:]
			if len(remainder)+len(s.queue) > s.queueCap {
				remainder = remainder[len(remainder)+len(s.queue)-s.queueCap:]
			}
			s.queue = append(remainder, s.queue...)
			s.mu.Unlock()
			break
		}
		flushed++
	}

	if flushed > 0 {
		s.log.Info().Int("flushed", flushed).Msg("audit retry queue flushed")
	}
}
