package service

import (
	"context"
	"sync"
	"time"

	"github.com/GoPolymarket/opa/internal/model"
	"github.com/GoPolymarket/opa/internal/pkg/logger"
	"github.com/GoPolymarket/opa/internal/pkg/metrics"
)

// AuditStore is append-only persistence for line-item attempts.
type AuditStore interface {
	Append(ctx context.Context, entry model.NewAuditLogEntry) (int64, error)
	Recent(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
	Drop(ctx context.Context) error
}

// AuditService fronts an AuditStore and reports write failures on the
// operational log instead of to the caller's user.
type AuditService struct {
	store       AuditStore
	recentLimit int
}

func NewAuditService(store AuditStore, recentLimit int) *AuditService {
	if store == nil {
		store = NewMemoryAuditStore(0)
	}
	return &AuditService{store: store, recentLimit: model.NormalizeLimit(recentLimit)}
}

// Record appends entry. A failure is logged and counted, then returned so
// callers can decide whether to care.
func (s *AuditService) Record(ctx context.Context, entry model.NewAuditLogEntry) (int64, error) {
	id, err := s.store.Append(ctx, entry)
	if err != nil {
		metrics.AuditWriteFailures.Inc()
		logger.LogError(ctx, err, "audit append failed",
			"order_id", entry.OrderID,
			"product_sku", entry.ProductSKU,
			"status", entry.Status,
		)
		return 0, err
	}
	return id, nil
}

func (s *AuditService) Recent(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	return s.store.Recent(ctx, limit)
}

func (s *AuditService) Drop(ctx context.Context) error {
	return s.store.Drop(ctx)
}

// MemoryAuditStore keeps the newest maxSize entries in a ring buffer.
type MemoryAuditStore struct {
	mu        sync.Mutex
	maxSize   int
	records   []model.AuditLogEntry
	nextIndex int
	lastID    int64
	lastAt    time.Time
	now       func() time.Time
}

func NewMemoryAuditStore(maxSize int) *MemoryAuditStore {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryAuditStore{
		maxSize: maxSize,
		records: make([]model.AuditLogEntry, 0, maxSize),
		now:     time.Now,
	}
}

func (b *MemoryAuditStore) Append(_ context.Context, entry model.NewAuditLogEntry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastID++
	at := b.now().UTC()
	// keep created_at monotonic so insertion order is recency order
	if at.Before(b.lastAt) {
		at = b.lastAt
	}
	b.lastAt = at
	rec := model.AuditLogEntry{
		ID:         b.lastID,
		OrderID:    entry.OrderID,
		ProductSKU: entry.ProductSKU,
		Quantity:   entry.Quantity,
		Status:     entry.Status,
		Message:    entry.Message,
		CreatedAt:  at,
	}
	if len(b.records) < b.maxSize {
		b.records = append(b.records, rec)
		return rec.ID, nil
	}
	b.records[b.nextIndex] = rec
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
	return rec.ID, nil
}

func (b *MemoryAuditStore) Recent(_ context.Context, limit int) ([]model.AuditLogEntry, error) {
	limit = model.NormalizeLimit(limit)
	b.mu.Lock()
	defer b.mu.Unlock()
	total := len(b.records)
	if limit > total {
		limit = total
	}
	results := make([]model.AuditLogEntry, 0, limit)
	// walk backwards from the newest slot
	for i := 0; i < total && len(results) < limit; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		results = append(results, b.records[idx])
	}
	return results, nil
}

func (b *MemoryAuditStore) Drop(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = b.records[:0]
	b.nextIndex = 0
	return nil
}
