// Command cleanup runs one cleanup sweep and one round of expiry notices,
// for deployments that schedule maintenance outside the API process.
package main

import (
	"context"
	"log"
	"time"

	"vaultshare/internal/config"
	"vaultshare/internal/database"
	"vaultshare/internal/domain/auth"
	"vaultshare/internal/domain/file"
	"vaultshare/internal/domain/notification"
	"vaultshare/internal/pkg/jwt"
	"vaultshare/internal/server"
	"vaultshare/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db, server.Models()...); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	users := auth.NewRepository(db)
	notifier := notification.NewService(notification.NewRepository(db), users, server.NewSender(cfg.Mail))
	quota := auth.NewService(users, jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL), cfg.Limits.DefaultStorageQuota)
	cleanup := file.NewCleanupService(file.NewRepository(db), blobs, quota, notifier, cfg.Cleanup)

	stats, err := cleanup.Run(ctx)
	if err != nil {
		log.Fatalf("cleanup failed: %v", err)
	}
	notified, err := cleanup.NotifyExpiring(ctx)
	if err != nil {
		log.Fatalf("expiry notices failed: %v", err)
	}

	log.Printf("cleanup completed: scanned=%d deleted=%d purged=%d failed=%d by_reason=%v expiry_notices=%d",
		stats.Scanned, stats.Deleted, stats.Purged, stats.Failed, stats.ByReason, notified)
}
