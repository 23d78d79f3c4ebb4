package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vaultshare/internal/database"
	"vaultshare/internal/pkg/jwt"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:auth_test_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db, &User{}))
	return db
}

func setupTestService(t *testing.T, quota int64) (*Service, *jwt.Service) {
	t.Helper()
	jwtService := jwt.New("test-secret", time.Hour)
	return NewService(NewRepository(setupTestDB(t)), jwtService, quota), jwtService
}

func TestRegisterAndLogin(t *testing.T) {
	svc, jwtService := setupTestService(t, 1000)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Email: " Owner@Example.com ", Password: "s3cretpass", Name: "Owner"})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", reg.User.Email)
	assert.Equal(t, int64(1000), reg.User.StorageQuota)
	assert.Equal(t, int64(3600), reg.ExpiresIn)

	claims, err := jwtService.ValidateToken(reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	login, err := svc.Login(ctx, LoginRequest{Email: "OWNER@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLoginAt)

	_, err = svc.Login(ctx, LoginRequest{Email: "owner@example.com", Password: "wrongpass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "s3cretpass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	svc, _ := setupTestService(t, 1000)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "short1"})
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "onlyletters"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Email: "A@example.com", Password: "s3cretpass"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestStorageReservation(t *testing.T) {
	svc, _ := setupTestService(t, 100)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Email: "q@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	id := reg.User.ID

	require.NoError(t, svc.ReserveStorage(ctx, id, 60))
	assert.ErrorIs(t, svc.ReserveStorage(ctx, id, 50), ErrQuotaExceeded)
	require.NoError(t, svc.ReserveStorage(ctx, id, 40))

	me, err := svc.GetMe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), me.StorageUsed)
	assert.Equal(t, int64(0), me.StorageAvailable())

	require.NoError(t, svc.ReleaseStorage(ctx, id, 30))
	require.NoError(t, svc.ReleaseStorage(ctx, id, 500))
	me, err = svc.GetMe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), me.StorageUsed)

	assert.ErrorIs(t, svc.ReserveStorage(ctx, 9999, 1), ErrUserNotFound)
}

func TestStorageReservationConcurrent(t *testing.T) {
	svc, _ := setupTestService(t, 10)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Email: "c@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.ReserveStorage(ctx, reg.User.ID, 1) == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, granted)
	me, err := svc.GetMe(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), me.StorageUsed)
}
