package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoPolymarket/opa/internal/config"
	"github.com/GoPolymarket/opa/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CommerceStore is the order and catalog backend the batch processor mutates.
type CommerceStore struct {
	db *gorm.DB
}

// OpenCommerce opens the configured driver and migrates products, orders
// and order_items.
func OpenCommerce(cfg config.CommerceConfig) (*CommerceStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("commerce dsn is empty")
		}
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file:opa?mode=memory&cache=shared"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported commerce driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("commerce db open: %w", err)
	}
	return NewCommerceStore(db)
}

func NewCommerceStore(db *gorm.DB) (*CommerceStore, error) {
	if err := db.AutoMigrate(&model.Product{}, &model.Order{}, &model.LineItem{}); err != nil {
		return nil, fmt.Errorf("commerce db migrate: %w", err)
	}
	return &CommerceStore{db: db}, nil
}

func (s *CommerceStore) Resolve(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *CommerceStore) ProductIDForSKU(ctx context.Context, sku string) (int64, error) {
	var p model.Product
	err := s.db.WithContext(ctx).Select("id").Where("sku = ?", sku).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, model.ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *CommerceStore) LoadProduct(ctx context.Context, productID int64) (*model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AttachLineItem adds an unsaved line item to order. Nothing is written
// until Persist.
func (s *CommerceStore) AttachLineItem(_ context.Context, order *model.Order, product *model.Product, quantity int) error {
	if order.Closed() {
		return fmt.Errorf("%w: status %s", model.ErrOrderClosed, order.Status)
	}
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	order.Items = append(order.Items, model.LineItem{
		OrderID:   order.ID,
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Subtotal:  product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	})
	return nil
}

func (s *CommerceStore) RecalculateTotals(_ context.Context, order *model.Order) error {
	total := decimal.Zero
	for _, item := range order.Items {
		total = total.Add(item.Subtotal)
	}
	order.Total = total
	return nil
}

// Persist writes new line items and the order total in one transaction.
func (s *CommerceStore) Persist(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range order.Items {
			if order.Items[i].ID != 0 {
				continue
			}
			if err := tx.Create(&order.Items[i]).Error; err != nil {
				return fmt.Errorf("insert line item: %w", err)
			}
		}
		res := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"total":      order.Total,
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return fmt.Errorf("update order total: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return model.ErrOrderNotFound
		}
		return nil
	})
}

// SeedProduct inserts or updates a catalog product by SKU.
func (s *CommerceStore) SeedProduct(ctx context.Context, p *model.Product) error {
	var existing model.Product
	err := s.db.WithContext(ctx).Where("sku = ?", p.SKU).Take(&existing).Error
	if err == nil {
		p.ID = existing.ID
		return s.db.WithContext(ctx).Save(p).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *CommerceStore) CreateOrder(ctx context.Context, o *model.Order) error {
	if o.Status == "" {
		o.Status = model.OrderStatusPending
	}
	return s.db.WithContext(ctx).Create(o).Error
}
