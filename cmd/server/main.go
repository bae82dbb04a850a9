package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/opa/internal/config"
	"github.com/GoPolymarket/opa/internal/manager"
	"github.com/GoPolymarket/opa/internal/pkg/logger"
	"github.com/GoPolymarket/opa/internal/repository"
	"github.com/GoPolymarket/opa/internal/router"
	"github.com/GoPolymarket/opa/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	ctx := context.Background()

	// 2. Initialize Persistence
	var redisClient *repository.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("Connected to Redis")
		} else {
			logger.Error("Failed to connect to Redis, falling back to memory", "error", err)
			redisClient = nil
		}
	}

	// Audit Persistence (Postgres > Redis > Memory)
	var auditStore service.AuditStore
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			pgStore, err := repository.NewPostgresAuditRepo(ctx, db, cfg.Audit.Table)
			if err == nil {
				logger.Info("Connected to PostgreSQL", "table", cfg.Audit.Table)
				auditStore = pgStore
				defer db.Close()
			} else {
				logger.Error("Failed to prepare audit table", "error", err)
				_ = db.Close()
			}
		} else {
			logger.Error("Failed to connect to DB", "error", err)
		}
	}
	if auditStore == nil && redisClient != nil {
		auditStore = repository.NewRedisAuditRepo(redisClient, cfg.Redis.AuditListKey, cfg.Redis.AuditListMax)
		logger.Info("Audit log stored in Redis", "key", cfg.Redis.AuditListKey)
	}
	if auditStore == nil {
		auditStore = service.NewMemoryAuditStore(cfg.Redis.AuditListMax)
		logger.Warn("Audit log kept in memory only")
	}

	var nonceStore manager.NonceStore
	if redisClient != nil {
		nonceStore = repository.NewRedisNonceStore(redisClient, cfg.Redis.NoncePrefix)
	}
	nonces := manager.NewNonceManager(nonceStore, time.Duration(cfg.Auth.NonceTTLMinutes)*time.Minute)

	commerce, err := repository.OpenCommerce(cfg.Commerce)
	if err != nil {
		log.Fatalf("Failed to open commerce store: %v", err)
	}

	// 3. Initialize Core Services
	auditSvc := service.NewAuditService(auditStore, cfg.Audit.RecentLimit)
	processor := service.MustNewBatchProcessor(
		service.WithOrderResolver(commerce),
		service.WithCatalog(commerce),
		service.WithOrderMutator(commerce),
		service.WithAuditService(auditSvc),
	)

	// 4. Setup Router
	r := gin.New()
	r.Use(gin.Recovery())
	router.Setup(r, router.Deps{
		Config:    cfg,
		Nonces:    nonces,
		Processor: processor,
		Audit:     auditSvc,
	})

	if cfg.Auth.AdminKey == "" {
		logger.Warn("auth.admin_key is empty, admin routes will refuse every request")
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("OPA started", "port", cfg.Server.Port, "read_only", cfg.Server.ReadOnly)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("Server exiting")
}
