package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"vaultshare/internal/config"
	"vaultshare/internal/database"
	"vaultshare/internal/scheduler"
	"vaultshare/internal/server"
	"vaultshare/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	app := server.New(cfg, db, blobs, server.NewSender(cfg.Mail))
	app.Dispatcher.Start()

	jobs := scheduler.New(app.Cleanup, cfg.Cleanup.Interval)
	if err := jobs.Register(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	jobs.Start()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("server_start addr=%s env=%s storage=%s", cfg.HTTPAddr, cfg.AppEnv, blobs.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	jobs.Stop()
	app.Dispatcher.Stop()
	log.Println("server stopped")
}
