package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderClosed     = errors.New("order is closed for edits")
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

type Product struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	SKU       string          `gorm:"size:100;uniqueIndex" json:"sku"`
	Name      string          `gorm:"size:255" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(20,6)" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

type Order struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Status    string          `gorm:"size:20;index" json:"status"`
	Total     decimal.Decimal `gorm:"type:decimal(20,6)" json:"total"`
	Items     []LineItem      `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// Closed reports whether the order refuses new line items.
func (o *Order) Closed() bool {
	return o.Status == OrderStatusCancelled || o.Status == OrderStatusRefunded
}

type LineItem struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	OrderID   int64           `gorm:"index" json:"order_id"`
	ProductID int64           `json:"product_id"`
	SKU       string          `gorm:"size:100" json:"sku"`
	Name      string          `gorm:"size:255" json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,6)" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,6)" json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}

func (LineItem) TableName() string { return "order_items" }
