package main

import (
	"context"
	"log"
	"time"

	"github.com/GoPolymarket/opa/internal/config"
	"github.com/GoPolymarket/opa/internal/pkg/logger"
	"github.com/GoPolymarket/opa/internal/repository"
)

// uninstall removes every persisted audit entry: the Postgres table and the
// Redis list with its id sequence. Commerce data is left alone.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed := false
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err != nil {
			logger.Error("Failed to connect to DB", "error", err)
			failed = true
		} else {
			defer db.Close()
			if err := repository.DropAuditTable(ctx, db, cfg.Audit.Table); err != nil {
				logger.Error("Failed to drop audit table", "table", cfg.Audit.Table, "error", err)
				failed = true
			} else {
				logger.Info("Dropped audit table", "table", cfg.Audit.Table)
			}
		}
	}

	if cfg.Redis.Addr != "" {
		client, err := repository.NewRedisClient(cfg)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			failed = true
		} else {
			defer client.Close()
			store := repository.NewRedisAuditRepo(client, cfg.Redis.AuditListKey, cfg.Redis.AuditListMax)
			if err := store.Drop(ctx); err != nil {
				logger.Error("Failed to delete audit list", "key", cfg.Redis.AuditListKey, "error", err)
				failed = true
			} else {
				logger.Info("Deleted audit list", "key", cfg.Redis.AuditListKey)
			}
		}
	}

	if failed {
		log.Fatal("uninstall incomplete")
	}
}
