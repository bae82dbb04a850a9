package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/GoPolymarket/opa/internal/model"
	"github.com/GoPolymarket/opa/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

type BatchProcessor interface {
	ProcessBatch(ctx context.Context, req model.BatchRequest) ([]model.OrderMutationResult, error)
}

type LineItemHandler struct {
	processor BatchProcessor
}

func NewLineItemHandler(processor BatchProcessor) *LineItemHandler {
	return &LineItemHandler{processor: processor}
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type addLineItemsRequest struct {
	OrderIDs   string     `form:"order_ids" json:"order_ids"`
	ProductSKU string     `form:"product_sku" json:"product_sku"`
	Quantity   flexString `form:"quantity" json:"quantity"`
}

func (h *LineItemHandler) AddLineItems(c *gin.Context) {
	var req addLineItemsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest("Invalid request body"))
		return
	}

	batch, err := req.toBatch()
	if err != nil {
		c.Error(err)
		return
	}

	results, err := h.processor.ProcessBatch(c.Request.Context(), batch)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, gin.H{"results": results})
}

func (r addLineItemsRequest) toBatch() (model.BatchRequest, error) {
	rawIDs := strings.TrimSpace(r.OrderIDs)
	sku := strings.TrimSpace(r.ProductSKU)
	rawQty := strings.TrimSpace(string(r.Quantity))
	if rawIDs == "" || sku == "" || rawQty == "" {
		return model.BatchRequest{}, apperrors.NewInvalidRequest("Missing required fields")
	}

	qty, err := strconv.Atoi(rawQty)
	if err != nil || qty < 1 {
		return model.BatchRequest{}, apperrors.NewInvalidRequest("Quantity must be a positive integer")
	}
	if utf8.RuneCountInString(sku) > model.MaxSKULength {
		return model.BatchRequest{}, apperrors.NewInvalidRequest("Product SKU is too long")
	}

	ids := ParseOrderIDs(rawIDs)
	if len(ids) == 0 {
		return model.BatchRequest{}, apperrors.NewInvalidRequest("No valid order IDs provided")
	}
	return model.BatchRequest{OrderIDs: ids, SKU: sku, Quantity: qty}, nil
}

// ParseOrderIDs splits a comma separated list and keeps positive integers
// in their original order, duplicates included.
func ParseOrderIDs(raw string) []int64 {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
