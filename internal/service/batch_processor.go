package service

import (
	"context"
	"errors"

	"github.com/GoPolymarket/opa/internal/model"
	"github.com/GoPolymarket/opa/internal/pkg/apperrors"
	"github.com/GoPolymarket/opa/internal/pkg/logger"
	"github.com/GoPolymarket/opa/internal/pkg/metrics"
)

type OrderResolver interface {
	Resolve(ctx context.Context, orderID int64) (*model.Order, error)
}

type Catalog interface {
	ProductIDForSKU(ctx context.Context, sku string) (int64, error)
	LoadProduct(ctx context.Context, productID int64) (*model.Product, error)
}

type OrderMutator interface {
	AttachLineItem(ctx context.Context, order *model.Order, product *model.Product, quantity int) error
	RecalculateTotals(ctx context.Context, order *model.Order) error
	Persist(ctx context.Context, order *model.Order) error
}

// BatchProcessor attaches one product line item to many orders. Each order
// is handled on its own: a failure is reported for that order and the loop
// moves on.
type BatchProcessor struct {
	orders  OrderResolver
	catalog Catalog
	mutator OrderMutator
	audit   *AuditService
}

type option func(*BatchProcessor)

// MustNewBatchProcessor panics when a collaborator is missing.
func MustNewBatchProcessor(opts ...option) *BatchProcessor {
	p := &BatchProcessor{}
	for _, opt := range opts {
		opt(p)
	}
	if p.orders == nil || p.catalog == nil || p.mutator == nil {
		panic("batch processor: order resolver, catalog and mutator are required")
	}
	if p.audit == nil {
		p.audit = NewAuditService(nil, 0)
	}
	return p
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderResolver(r OrderResolver) option {
	return func(p *BatchProcessor) { p.orders = r }
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithCatalog(c Catalog) option {
	return func(p *BatchProcessor) { p.catalog = c }
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderMutator(m OrderMutator) option {
	return func(p *BatchProcessor) { p.mutator = m }
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithAuditService(a *AuditService) option {
	return func(p *BatchProcessor) { p.audit = a }
}

// ProcessBatch resolves sku once, then mutates every order in input order.
// An unknown sku rejects the whole batch before anything is written.
// Otherwise the result has one entry per order id, duplicates included.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, req model.BatchRequest) ([]model.OrderMutationResult, error) {
	productID, err := p.catalog.ProductIDForSKU(ctx, req.SKU)
	if err != nil {
		metrics.BatchesTotal.WithLabelValues("rejected").Inc()
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, apperrors.NewNotFound(model.MessageNoProduct)
		}
		return nil, apperrors.New(apperrors.ErrInternal, "catalog lookup failed", err)
	}

	log := logger.FromContext(ctx).With("product_sku", req.SKU, "product_id", productID)
	results := make([]model.OrderMutationResult, 0, len(req.OrderIDs))
	for _, orderID := range req.OrderIDs {
		res := p.processOrder(ctx, orderID, productID, req.Quantity)
		metrics.OrderMutationsTotal.WithLabelValues(string(res.Status)).Inc()
		if res.Status == model.StatusError {
			log.Warn("line item not added", "order_id", orderID, "reason", res.Message)
		}

		// Record already logs and counts failures
		_, _ = p.audit.Record(ctx, model.NewAuditLogEntry{
			OrderID:    res.OrderID,
			ProductSKU: req.SKU,
			Quantity:   req.Quantity,
			Status:     res.Status,
			Message:    res.Message,
		})
		results = append(results, res)
	}

	metrics.BatchesTotal.WithLabelValues("processed").Inc()
	log.Info("batch processed", "orders", len(req.OrderIDs))
	return results, nil
}

func (p *BatchProcessor) processOrder(ctx context.Context, orderID, productID int64, quantity int) model.OrderMutationResult {
	order, err := p.orders.Resolve(ctx, orderID)
	if err != nil || order == nil {
		return model.Failed(orderID, model.MessageOrderNotFound)
	}

	product, err := p.catalog.LoadProduct(ctx, productID)
	if err != nil {
		return model.Failed(orderID, err.Error())
	}
	if product == nil {
		return model.Failed(orderID, model.ErrProductNotFound.Error())
	}

	if err := p.mutator.AttachLineItem(ctx, order, product, quantity); err != nil {
		return model.Failed(orderID, err.Error())
	}
	if err := p.mutator.RecalculateTotals(ctx, order); err != nil {
		return model.Failed(orderID, err.Error())
	}
	if err := p.mutator.Persist(ctx, order); err != nil {
		return model.Failed(orderID, err.Error())
	}
	return model.Succeeded(orderID)
}
