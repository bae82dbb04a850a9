package service

import (
	"context"
	"errors"
	"testing"

	"github.com/GoPolymarket/opa/internal/model"
	"github.com/GoPolymarket/opa/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommerce plays order resolver, catalog and mutator at once.
type fakeCommerce struct {
	products   map[string]*model.Product
	orders     map[int64]*model.Order
	skuErr     error
	loadErr    error
	persistErr map[int64]error
	persisted  []int64
}

func newFakeCommerce() *fakeCommerce {
	return &fakeCommerce{
		products: map[string]*model.Product{
			"WIDGET-1": {ID: 5, SKU: "WIDGET-1", Name: "Widget"},
		},
		orders: map[int64]*model.Order{
			12: {ID: 12, Status: model.OrderStatusProcessing},
		},
		persistErr: map[int64]error{},
	}
}

func (f *fakeCommerce) Resolve(_ context.Context, id int64) (*model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeCommerce) ProductIDForSKU(_ context.Context, sku string) (int64, error) {
	if f.skuErr != nil {
		return 0, f.skuErr
	}
	p, ok := f.products[sku]
	if !ok {
		return 0, model.ErrProductNotFound
	}
	return p.ID, nil
}

func (f *fakeCommerce) LoadProduct(_ context.Context, id int64) (*model.Product, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, model.ErrProductNotFound
}

func (f *fakeCommerce) AttachLineItem(_ context.Context, o *model.Order, p *model.Product, qty int) error {
	if o.Closed() {
		return model.ErrOrderClosed
	}
	o.Items = append(o.Items, model.LineItem{OrderID: o.ID, ProductID: p.ID, Quantity: qty})
	return nil
}

func (f *fakeCommerce) RecalculateTotals(context.Context, *model.Order) error { return nil }

func (f *fakeCommerce) Persist(_ context.Context, o *model.Order) error {
	if err := f.persistErr[o.ID]; err != nil {
		return err
	}
	f.persisted = append(f.persisted, o.ID)
	return nil
}

// failingAuditStore refuses every write.
type failingAuditStore struct {
	attempts int
}

func (s *failingAuditStore) Append(context.Context, model.NewAuditLogEntry) (int64, error) {
	s.attempts++
	return 0, errors.New("storage unavailable")
}

func (s *failingAuditStore) Recent(context.Context, int) ([]model.AuditLogEntry, error) {
	return nil, errors.New("storage unavailable")
}

func (s *failingAuditStore) Drop(context.Context) error { return nil }

func newTestProcessor(c *fakeCommerce, store AuditStore) *BatchProcessor {
	return MustNewBatchProcessor(
		WithOrderResolver(c),
		WithCatalog(c),
		WithOrderMutator(c),
		WithAuditService(NewAuditService(store, 50)),
	)
}

func TestProcessBatch_MixedOutcomesKeepInputOrder(t *testing.T) {
	commerce := newFakeCommerce()
	store := NewMemoryAuditStore(100)
	p := newTestProcessor(commerce, store)

	results, err := p.ProcessBatch(context.Background(), model.BatchRequest{
		OrderIDs: []int64{12, 99999, 12},
		SKU:      "WIDGET-1",
		Quantity: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, []model.OrderMutationResult{
		{OrderID: 12, Status: model.StatusSuccess, Message: "Product added successfully"},
		{OrderID: 99999, Status: model.StatusError, Message: "Order not found"},
		{OrderID: 12, Status: model.StatusSuccess, Message: "Product added successfully"},
	}, results)
	assert.Equal(t, []int64{12, 12}, commerce.persisted)

	logs, err := store.Recent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	// newest first, so reversed against results
	for i, res := range results {
		log := logs[len(logs)-1-i]
		assert.Equal(t, res.OrderID, log.OrderID)
		assert.Equal(t, res.Status, log.Status)
		assert.Equal(t, res.Message, log.Message)
		assert.Equal(t, "WIDGET-1", log.ProductSKU)
		assert.Equal(t, 3, log.Quantity)
	}
}

func TestProcessBatch_UnknownSKURejectsWholeBatch(t *testing.T) {
	commerce := newFakeCommerce()
	store := NewMemoryAuditStore(100)
	p := newTestProcessor(commerce, store)

	results, err := p.ProcessBatch(context.Background(), model.BatchRequest{
		OrderIDs: []int64{12},
		SKU:      "NOPE",
		Quantity: 1,
	})
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, apperrors.IsType(err, apperrors.ErrNotFound))
	assert.Equal(t, "Product not found", err.Error())
	assert.Empty(t, commerce.persisted)

	logs, err := store.Recent(context.Background(), 50)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestProcessBatch_CatalogFailureIsInternal(t *testing.T) {
	commerce := newFakeCommerce()
	commerce.skuErr = errors.New("catalog down")
	store := NewMemoryAuditStore(100)
	p := newTestProcessor(commerce, store)

	_, err := p.ProcessBatch(context.Background(), model.BatchRequest{OrderIDs: []int64{12}, SKU: "WIDGET-1", Quantity: 1})
	assert.True(t, apperrors.IsType(err, apperrors.ErrInternal))

	logs, _ := store.Recent(context.Background(), 50)
	assert.Empty(t, logs)
}

func TestProcessBatch_PerOrderFailuresCarryMessage(t *testing.T) {
	commerce := newFakeCommerce()
	commerce.orders[13] = &model.Order{ID: 13, Status: model.OrderStatusRefunded}
	commerce.orders[14] = &model.Order{ID: 14, Status: model.OrderStatusPending}
	commerce.persistErr[14] = errors.New("deadlock detected")
	store := NewMemoryAuditStore(100)
	p := newTestProcessor(commerce, store)

	results, err := p.ProcessBatch(context.Background(), model.BatchRequest{
		OrderIDs: []int64{13, 14, 12},
		SKU:      "WIDGET-1",
		Quantity: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, model.Failed(13, model.ErrOrderClosed.Error()), results[0])
	assert.Equal(t, model.Failed(14, "deadlock detected"), results[1])
	assert.Equal(t, model.Succeeded(12), results[2])

	logs, _ := store.Recent(context.Background(), 50)
	assert.Len(t, logs, 3)
}

func TestProcessBatch_ProductLoadFailureIsPerOrder(t *testing.T) {
	commerce := newFakeCommerce()
	commerce.loadErr = errors.New("product 5 could not be loaded")
	store := NewMemoryAuditStore(100)
	p := newTestProcessor(commerce, store)

	results, err := p.ProcessBatch(context.Background(), model.BatchRequest{
		OrderIDs: []int64{12, 99999},
		SKU:      "WIDGET-1",
		Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, model.Failed(12, "product 5 could not be loaded"), results[0])
	assert.Equal(t, model.Failed(99999, model.MessageOrderNotFound), results[1])
}

func TestProcessBatch_AuditFailureDoesNotAbort(t *testing.T) {
	commerce := newFakeCommerce()
	store := &failingAuditStore{}
	p := newTestProcessor(commerce, store)

	results, err := p.ProcessBatch(context.Background(), model.BatchRequest{
		OrderIDs: []int64{12, 99999, 12},
		SKU:      "WIDGET-1",
		Quantity: 3,
	})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, 3, store.attempts)
	assert.Equal(t, []int64{12, 12}, commerce.persisted)
}

func TestMustNewBatchProcessor_RequiresCollaborators(t *testing.T) {
	assert.Panics(t, func() { MustNewBatchProcessor() })
}
