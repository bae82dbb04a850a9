package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoPolymarket/opa/internal/config"
	"github.com/GoPolymarket/opa/internal/manager"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedRouter(cfg *config.Config, nonces *manager.NonceManager, readOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	g := r.Group("/v1/admin", AdminMiddleware(cfg), ReadOnlyMiddleware(readOnly), NonceMiddleware(nonces, ActionAdmin))
	ok := func(c *gin.Context) { c.String(http.StatusOK, AdminSubjectFrom(c)) }
	g.GET("/thing", ok)
	g.POST("/thing", ok)
	r.GET("/boom", func(c *gin.Context) { c.Error(errors.New("db exploded")) })
	return r
}

func TestAdminMiddlewareWithoutConfiguredKey(t *testing.T) {
	r := newGuardedRouter(&config.Config{}, manager.NewNonceManager(nil, time.Hour), false)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/thing", nil)
	req.Header.Set(HeaderAdminKey, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestGuardsPassWithKeyAndNonce(t *testing.T) {
	nonces := manager.NewNonceManager(nil, time.Hour)
	cfg := &config.Config{Auth: config.AuthConfig{AdminKey: "k"}}
	r := newGuardedRouter(cfg, nonces, false)
	token, _, err := nonces.Issue(context.Background(), AdminSubject, ActionAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/thing?nonce="+token, nil)
	req.Header.Set(HeaderAdminKey, "k")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, AdminSubject, rec.Body.String())
}

func TestReadOnlyBlocksWritesOnly(t *testing.T) {
	nonces := manager.NewNonceManager(nil, time.Hour)
	cfg := &config.Config{Auth: config.AuthConfig{AdminKey: "k"}}
	r := newGuardedRouter(cfg, nonces, true)
	token, _, err := nonces.Issue(context.Background(), AdminSubject, ActionAdmin)
	require.NoError(t, err)

	post := httptest.NewRequest(http.MethodPost, "/v1/admin/thing", nil)
	post.Header.Set(HeaderAdminKey, "k")
	post.Header.Set(HeaderNonce, token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, post)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	get := httptest.NewRequest(http.MethodGet, "/v1/admin/thing", nil)
	get.Header.Set(HeaderAdminKey, "k")
	get.Header.Set(HeaderNonce, token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, get)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	r := newGuardedRouter(&config.Config{}, manager.NewNonceManager(nil, time.Hour), false)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db exploded")
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
