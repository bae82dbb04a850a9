package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/GoPolymarket/opa/internal/manager"
	"github.com/GoPolymarket/opa/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

const HeaderNonce = "X-OPA-Nonce"

// ActionAdmin is the nonce action shared by the admin page endpoints.
const ActionAdmin = "opa_admin"

// NonceMiddleware rejects requests whose anti-forgery token was not issued
// to the current admin for action. Runs after AdminMiddleware.
func NonceMiddleware(nonces *manager.NonceManager, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractNonce(c)
		if !nonces.Verify(c.Request.Context(), AdminSubjectFrom(c), action, token) {
			c.Error(apperrors.New(apperrors.ErrInvalidNonce, "Security check failed", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractNonce(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(HeaderNonce)); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Query("nonce")); v != "" {
		return v
	}
	if c.Request.Body == nil || c.Request.Method == "GET" {
		return ""
	}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		raw, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
		var body struct {
			Nonce string `json:"nonce"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return ""
		}
		return strings.TrimSpace(body.Nonce)
	}
	return strings.TrimSpace(c.PostForm("nonce"))
}
