package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultDatabaseURL        = "vaultshare.db"
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultJWTAccessTTL       = "24h"
	defaultFrontendURL        = "http://localhost:3000"
	defaultStorageBackend     = "local"
	defaultLocalStorageDir    = "./uploads"
	defaultS3Region           = "us-east-1"
	defaultMinioBucket        = "vaultshare"
	defaultMaxFileSize        = 100 * 1024 * 1024
	defaultMaxExpiryHours     = 168
	defaultExpiryHours        = 24
	defaultMaxViews           = 10
	defaultSessionMinutes     = 15
	defaultStorageQuota       = 5 * 1024 * 1024 * 1024
	defaultCleanupInterval    = "1h"
	defaultCleanupBatchSize   = 100
	defaultMaxFileAge         = "720h"
	defaultExpiryNoticeWindow = "24h"
	defaultMailFrom           = "no-reply@vaultshare.local"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration

	FrontendURL        string
	CORSAllowedOrigins []string

	Storage StorageConfig
	Limits  LimitsConfig
	Cleanup CleanupConfig
	Mail    MailConfig
}

type StorageConfig struct {
	Backend  string
	LocalDir string

	S3Bucket   string
	S3Region   string
	S3Endpoint string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// LimitsConfig carries upload limits and the defaults applied to new files.
type LimitsConfig struct {
	MaxFileSize           int64
	MaxExpiryHours        int
	DefaultExpiryHours    int
	DefaultMaxViews       int
	DefaultSessionMinutes int
	DefaultStorageQuota   int64
}

type CleanupConfig struct {
	Interval           time.Duration
	BatchSize          int
	MaxFileAge         time.Duration
	ExpiryNoticeWindow time.Duration
}

type MailConfig struct {
	BrevoAPIKey string
	From        string
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(getEnv("FRONTEND_URL", defaultFrontendURL)), "/")
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.Storage = StorageConfig{
		Backend:        strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", defaultStorageBackend))),
		LocalDir:       strings.TrimSpace(getEnv("LOCAL_STORAGE_DIR", defaultLocalStorageDir)),
		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:       strings.TrimSpace(getEnv("S3_REGION", defaultS3Region)),
		S3Endpoint:     strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		MinioEndpoint:  strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")),
		MinioAccessKey: strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY")),
		MinioSecretKey: strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY")),
		MinioBucket:    strings.TrimSpace(getEnv("MINIO_BUCKET", defaultMinioBucket)),
		MinioUseSSL:    parseBoolEnv("MINIO_USE_SSL", "false"),
	}

	if cfg.Limits.MaxFileSize, err = parseInt64Env("MAX_FILE_SIZE", defaultMaxFileSize); err != nil {
		return nil, err
	}
	if cfg.Limits.MaxExpiryHours, err = parseIntEnv("MAX_EXPIRY_HOURS", defaultMaxExpiryHours); err != nil {
		return nil, err
	}
	if cfg.Limits.DefaultExpiryHours, err = parseIntEnv("DEFAULT_EXPIRY_HOURS", defaultExpiryHours); err != nil {
		return nil, err
	}
	if cfg.Limits.DefaultMaxViews, err = parseIntEnv("DEFAULT_MAX_VIEWS", defaultMaxViews); err != nil {
		return nil, err
	}
	if cfg.Limits.DefaultSessionMinutes, err = parseIntEnv("DEFAULT_SESSION_MINUTES", defaultSessionMinutes); err != nil {
		return nil, err
	}
	if cfg.Limits.DefaultStorageQuota, err = parseInt64Env("DEFAULT_STORAGE_QUOTA", defaultStorageQuota); err != nil {
		return nil, err
	}

	if cfg.Cleanup.Interval, err = parseDurationEnv("CLEANUP_INTERVAL", defaultCleanupInterval); err != nil {
		return nil, err
	}
	if cfg.Cleanup.BatchSize, err = parseIntEnv("CLEANUP_BATCH_SIZE", defaultCleanupBatchSize); err != nil {
		return nil, err
	}
	if cfg.Cleanup.MaxFileAge, err = parseDurationEnv("MAX_FILE_AGE", defaultMaxFileAge); err != nil {
		return nil, err
	}
	if cfg.Cleanup.ExpiryNoticeWindow, err = parseDurationEnv("EXPIRY_NOTICE_WINDOW", defaultExpiryNoticeWindow); err != nil {
		return nil, err
	}

	cfg.Mail = MailConfig{
		BrevoAPIKey: strings.TrimSpace(os.Getenv("BREVO_API_KEY")),
		From:        strings.TrimSpace(getEnv("MAIL_FROM", defaultMailFrom)),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s storage=%s addr=%s", cfg.AppEnv, cfg.Storage.Backend, cfg.HTTPAddr)

	return cfg, nil
}

// IsProduction reports whether the process runs with production safeguards.
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}

	switch cfg.Storage.Backend {
	case "local":
		if cfg.Storage.LocalDir == "" {
			return fmt.Errorf("LOCAL_STORAGE_DIR must not be empty")
		}
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	case "minio":
		if cfg.Storage.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_BACKEND=minio")
		}
		if cfg.Storage.MinioBucket == "" {
			return fmt.Errorf("MINIO_BUCKET must not be empty")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: local, s3, minio")
	}

	if cfg.Limits.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be > 0")
	}
	if cfg.Limits.MaxExpiryHours < 1 {
		return fmt.Errorf("MAX_EXPIRY_HOURS must be >= 1")
	}
	if cfg.Limits.DefaultExpiryHours < 1 || cfg.Limits.DefaultExpiryHours > cfg.Limits.MaxExpiryHours {
		return fmt.Errorf("DEFAULT_EXPIRY_HOURS must be between 1 and MAX_EXPIRY_HOURS")
	}
	if cfg.Limits.DefaultMaxViews < 1 {
		return fmt.Errorf("DEFAULT_MAX_VIEWS must be >= 1")
	}
	if cfg.Limits.DefaultSessionMinutes < 1 {
		return fmt.Errorf("DEFAULT_SESSION_MINUTES must be >= 1")
	}
	if cfg.Limits.DefaultStorageQuota <= 0 {
		return fmt.Errorf("DEFAULT_STORAGE_QUOTA must be > 0")
	}

	if cfg.Cleanup.Interval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be > 0")
	}
	if cfg.Cleanup.BatchSize <= 0 {
		return fmt.Errorf("CLEANUP_BATCH_SIZE must be > 0")
	}
	if cfg.Cleanup.MaxFileAge <= 0 {
		return fmt.Errorf("MAX_FILE_AGE must be > 0")
	}
	if cfg.Cleanup.ExpiryNoticeWindow <= 0 {
		return fmt.Errorf("EXPIRY_NOTICE_WINDOW must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if !strings.HasPrefix(cfg.DatabaseURL, "postgres://") && !strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
			return fmt.Errorf("in prod/release DATABASE_URL must point to PostgreSQL")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseInt64Env(name string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
