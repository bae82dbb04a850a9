package model

import (
	"errors"
	"time"
	"unicode/utf8"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

const MaxSKULength = 100

var ErrInvalidAuditEntry = errors.New("invalid audit log entry")

// AuditLogEntry is one persisted line-item attempt. ID and CreatedAt are
// assigned by the store.
type AuditLogEntry struct {
	ID         int64     `json:"id" db:"id"`
	OrderID    int64     `json:"order_id" db:"order_id"`
	ProductSKU string    `json:"product_sku" db:"product_sku"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Status     Status    `json:"status" db:"status"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NewAuditLogEntry carries the caller-supplied fields of an entry.
type NewAuditLogEntry struct {
	OrderID    int64
	ProductSKU string
	Quantity   int
	Status     Status
	Message    string
}

func (n NewAuditLogEntry) Validate() error {
	if n.ProductSKU == "" || utf8.RuneCountInString(n.ProductSKU) > MaxSKULength {
		return ErrInvalidAuditEntry
	}
	if n.Quantity < 1 {
		return ErrInvalidAuditEntry
	}
	if n.Status != StatusSuccess && n.Status != StatusError {
		return ErrInvalidAuditEntry
	}
	return nil
}

// Less orders entries newest first, breaking timestamp ties by id.
func (e AuditLogEntry) Less(o AuditLogEntry) bool {
	if !e.CreatedAt.Equal(o.CreatedAt) {
		return e.CreatedAt.After(o.CreatedAt)
	}
	return e.ID > o.ID
}

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// NormalizeLimit maps non-positive limits to the default window and caps
// the rest.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
