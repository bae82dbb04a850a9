package handler

import (
	"github.com/GoPolymarket/opa/internal/manager"
	"github.com/GoPolymarket/opa/internal/middleware"
	"github.com/GoPolymarket/opa/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

type NonceHandler struct {
	nonces *manager.NonceManager
}

func NewNonceHandler(nonces *manager.NonceManager) *NonceHandler {
	return &NonceHandler{nonces: nonces}
}

func (h *NonceHandler) Issue(c *gin.Context) {
	token, expiresAt, err := h.nonces.Issue(c.Request.Context(), middleware.AdminSubjectFrom(c), middleware.ActionAdmin)
	if err != nil {
		c.Error(apperrors.New(apperrors.ErrInternal, "failed to issue nonce", err))
		return
	}
	ok(c, gin.H{"nonce": token, "expires_at": expiresAt})
}
