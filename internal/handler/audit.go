package handler

import (
	"context"

	"github.com/GoPolymarket/opa/internal/model"
	"github.com/GoPolymarket/opa/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
}

type AuditHandler struct {
	reader AuditReader
	limit  int
}

func NewAuditHandler(reader AuditReader, limit int) *AuditHandler {
	// the admin page never shows more than the default window
	limit = model.NormalizeLimit(limit)
	if limit > model.DefaultRecentLimit {
		limit = model.DefaultRecentLimit
	}
	return &AuditHandler{reader: reader, limit: limit}
}

// List returns the newest audit entries. The window is fixed; there is no
// paging.
func (h *AuditHandler) List(c *gin.Context) {
	records, err := h.reader.Recent(c.Request.Context(), h.limit)
	if err != nil {
		c.Error(apperrors.New(apperrors.ErrInternal, "Failed to load logs", err))
		return
	}
	if records == nil {
		records = []model.AuditLogEntry{}
	}
	ok(c, gin.H{"logs": records})
}
