// Package server wires repositories, services and handlers into the HTTP
// router used by cmd/api and the end-to-end tests.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"vaultshare/internal/config"
	"vaultshare/internal/domain/access"
	"vaultshare/internal/domain/activity"
	"vaultshare/internal/domain/auth"
	"vaultshare/internal/domain/file"
	"vaultshare/internal/domain/notification"
	"vaultshare/internal/middleware"
	"vaultshare/internal/pkg/jwt"
	"vaultshare/internal/pkg/response"
	"vaultshare/internal/storage"
)

const notificationBuffer = 256

// Models lists every table the API owns, in migration order.
func Models() []any {
	return []any{
		&auth.User{},
		&file.File{},
		&file.FileShare{},
		&access.AccessLog{},
		&notification.EmailNotification{},
	}
}

// NewSender picks Brevo when an API key is configured and the log sender
// otherwise.
func NewSender(cfg config.MailConfig) notification.Sender {
	if cfg.BrevoAPIKey == "" {
		return notification.LogSender{}
	}
	return notification.NewBrevoSender(cfg.BrevoAPIKey, cfg.From)
}

// App is the assembled API. The caller starts and stops the dispatcher.
type App struct {
	Router     *gin.Engine
	Dispatcher *notification.Dispatcher
	Cleanup    *file.CleanupService
	Hub        *activity.Hub
	JWT        *jwt.Service
}

func New(cfg *config.Config, db *gorm.DB, blobs storage.BlobStore, sender notification.Sender) *App {
	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	userRepo := auth.NewRepository(db)
	fileRepo := file.NewRepository(db)
	ledger := access.NewLedger(db)
	notificationRepo := notification.NewRepository(db)

	notificationService := notification.NewService(notificationRepo, userRepo, sender)
	dispatcher := notification.NewDispatcher(notificationService, notificationBuffer)
	hub := activity.NewHub()

	authService := auth.NewService(userRepo, jwtService, cfg.Limits.DefaultStorageQuota)
	fileService := file.NewService(fileRepo, blobs, authService, dispatcher, cfg.Limits, cfg.FrontendURL)
	cleanupService := file.NewCleanupService(fileRepo, blobs, authService, dispatcher, cfg.Cleanup)
	accessService := access.NewService(fileRepo, ledger, blobs, dispatcher, hub)

	authHandler := auth.NewHandler(authService)
	fileHandler := file.NewHandler(fileService)
	accessHandler := access.NewHandler(accessService, cfg.FrontendURL)
	notificationHandler := notification.NewHandler(notificationService)
	origins := append([]string{cfg.FrontendURL}, cfg.CORSAllowedOrigins...)
	activityHandler := activity.NewHandler(hub, jwtService, origins)

	r := gin.New()
	if gin.Mode() != gin.TestMode {
		r.Use(gin.Logger())
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(origins))
	r.Use(middleware.Metrics())
	r.MaxMultipartMemory = 32 << 20

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "storage": blobs.Name()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)
		activityHandler.RegisterRoutes(v1)

		public := v1.Group("")
		public.Use(middleware.OptionalAuth(jwtService))
		{
			accessHandler.RegisterPublicRoutes(public)
		}

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			fileHandler.RegisterRoutes(protected)
			accessHandler.RegisterProtectedRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
		}
	}

	return &App{
		Router:     r,
		Dispatcher: dispatcher,
		Cleanup:    cleanupService,
		Hub:        hub,
		JWT:        jwtService,
	}
}
