// Command seed creates demo accounts and a few shared files with different
// access policies for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vaultshare/internal/config"
	"vaultshare/internal/database"
	"vaultshare/internal/domain/auth"
	"vaultshare/internal/domain/file"
	"vaultshare/internal/domain/notification"
	"vaultshare/internal/pkg/jwt"
	"vaultshare/internal/server"
	"vaultshare/internal/storage"
)

type demoFile struct {
	name    string
	content string
	opts    file.UploadOptions
}

var demoFiles = []demoFile{
	{"welcome.txt", "Welcome to VaultShare.", file.UploadOptions{MaxViews: 100}},
	{"one-time.txt", "This link works for a single viewing session.", file.UploadOptions{MaxViews: 1, SessionDuration: 5}},
	{"protected.txt", "Password is demo-pass-1.", file.UploadOptions{Password: "demo-pass-1", MaxViews: 10}},
	{"members-only.txt", "Visible to signed-in users, twice each.", file.UploadOptions{RequireSignin: true, MaxViewsPerConsumer: 2, DisableDownload: true}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db, server.Models()...); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	users := auth.NewRepository(db)
	authService := auth.NewService(users, jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL), cfg.Limits.DefaultStorageQuota)
	notifier := notification.NewService(notification.NewRepository(db), users, notification.LogSender{})
	fileService := file.NewService(file.NewRepository(db), blobs, authService, notifier, cfg.Limits, cfg.FrontendURL)

	log.Println("Creating users...")
	owner := ensureUser(ctx, authService, users, "owner@vaultshare.local", "owner12345", "Demo Owner")
	ensureUser(ctx, authService, users, "viewer@vaultshare.local", "viewer12345", "Demo Viewer")

	log.Println("Uploading files...")
	for _, d := range demoFiles {
		f, err := fileService.Upload(ctx, owner.ID, file.UploadInput{
			Filename:    d.name,
			ContentType: "text/plain",
			Data:        []byte(d.content),
			Options:     d.opts,
		})
		if err != nil {
			log.Fatalf("upload %s: %v", d.name, err)
		}
		fmt.Printf("%-18s %s\n", d.name, fileService.AccessURL(f))
	}

	log.Println("Seed completed: owner@vaultshare.local / owner12345, viewer@vaultshare.local / viewer12345")
}

func ensureUser(ctx context.Context, svc *auth.Service, users auth.Repository, email, password, name string) *auth.User {
	res, err := svc.Register(ctx, auth.RegisterRequest{Email: email, Password: password, Name: name})
	if err == nil {
		return res.User
	}
	if !errors.Is(err, auth.ErrEmailAlreadyExists) {
		log.Fatalf("register %s: %v", email, err)
	}
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("load %s: %v", email, err)
	}
	return u
}
