package middleware

import (
	"crypto/subtle"

	"github.com/GoPolymarket/opa/internal/config"
	"github.com/GoPolymarket/opa/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

const HeaderAdminKey = "X-Admin-Key"

// ContextAdminKey holds the authenticated admin subject used to bind nonces.
const ContextAdminKey = "admin_subject"

const AdminSubject = "admin"

func AdminMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || cfg.Auth.AdminKey == "" {
			c.Error(apperrors.New(apperrors.ErrForbidden, "admin key not configured", nil))
			c.Abort()
			return
		}
		got := c.GetHeader(HeaderAdminKey)
		if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.Auth.AdminKey)) != 1 {
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid admin key", nil))
			c.Abort()
			return
		}
		c.Set(ContextAdminKey, AdminSubject)
		c.Next()
	}
}

// AdminSubjectFrom returns the subject set by AdminMiddleware.
func AdminSubjectFrom(c *gin.Context) string {
	return c.GetString(ContextAdminKey)
}
