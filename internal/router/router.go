package router

import (
	"net/http"

	"github.com/GoPolymarket/opa/internal/config"
	"github.com/GoPolymarket/opa/internal/handler"
	"github.com/GoPolymarket/opa/internal/manager"
	"github.com/GoPolymarket/opa/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Config    *config.Config
	Nonces    *manager.NonceManager
	Processor handler.BatchProcessor
	Audit     handler.AuditReader
}

// Setup registers every route on r. Admin routes check the admin key, then
// the nonce, then the request itself.
func Setup(r *gin.Engine, deps Deps) {
	cfg := deps.Config

	r.Use(middleware.RequestLogMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "opa"})
	})

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}

	nonceHandler := handler.NewNonceHandler(deps.Nonces)
	lineItemHandler := handler.NewLineItemHandler(deps.Processor)
	auditHandler := handler.NewAuditHandler(deps.Audit, cfg.Audit.RecentLimit)

	admin := r.Group("/v1/admin")
	admin.Use(middleware.AdminMiddleware(cfg))
	{
		admin.GET("/nonce", nonceHandler.Issue)
		admin.GET("/logs",
			middleware.NonceMiddleware(deps.Nonces, middleware.ActionAdmin),
			auditHandler.List,
		)
		admin.POST("/orders/line-items",
			middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly),
			middleware.NonceMiddleware(deps.Nonces, middleware.ActionAdmin),
			lineItemHandler.AddLineItems,
		)
	}
}
