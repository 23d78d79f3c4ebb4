package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, 24, cfg.Limits.DefaultExpiryHours)
	assert.Equal(t, 10, cfg.Limits.DefaultMaxViews)
	assert.Equal(t, 15, cfg.Limits.DefaultSessionMinutes)
	assert.Equal(t, 100, cfg.Cleanup.BatchSize)
	assert.Equal(t, 720*time.Hour, cfg.Cleanup.MaxFileAge)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("FRONTEND_URL", "https://share.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("DEFAULT_SESSION_MINUTES", "30")
	t.Setenv("CLEANUP_INTERVAL", "15m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "https://share.example.com", cfg.FrontendURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 30, cfg.Limits.DefaultSessionMinutes)
	assert.Equal(t, 15*time.Minute, cfg.Cleanup.Interval)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"JWT_ACCESS_TTL":          "soon",
		"MAX_FILE_SIZE":           "big",
		"DEFAULT_SESSION_MINUTES": "0",
		"DEFAULT_EXPIRY_HOURS":    "500",
		"STORAGE_BACKEND":         "ftp",
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_BackendRequirements(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "S3_BUCKET")

	t.Setenv("S3_BUCKET", "files")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "files", cfg.Storage.S3Bucket)

	t.Setenv("STORAGE_BACKEND", "minio")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "MINIO_ENDPOINT")
}

func TestFromEnv_ProductionRefusesDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "PostgreSQL")

	t.Setenv("DATABASE_URL", "postgres://vault:vault@db:5432/vault")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
