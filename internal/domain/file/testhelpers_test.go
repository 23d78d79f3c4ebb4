package file

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vaultshare/internal/config"
	"vaultshare/internal/database"
	"vaultshare/internal/domain/auth"
	"vaultshare/internal/domain/notification"
	"vaultshare/internal/storage"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:file_test_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db, &File{}, &FileShare{}))
	return db
}

var testLimits = config.LimitsConfig{
	MaxFileSize:           1 << 20,
	MaxExpiryHours:        168,
	DefaultExpiryHours:    24,
	DefaultMaxViews:       10,
	DefaultSessionMinutes: 15,
}

type fakeQuota struct {
	mu    sync.Mutex
	used  int64
	limit int64
}

func (q *fakeQuota) ReserveStorage(_ context.Context, _ int64, bytes int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.used+bytes > q.limit {
		return auth.ErrQuotaExceeded
	}
	q.used += bytes
	return nil
}

func (q *fakeQuota) ReleaseStorage(_ context.Context, _ int64, bytes int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.used -= bytes
	if q.used < 0 {
		q.used = 0
	}
	return nil
}

func (q *fakeQuota) Used() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

type failingStore struct {
	*storage.MemoryStore
	putErr    error
	deleteErr error
}

func (s *failingStore) Put(ctx context.Context, key string, data []byte, ct string) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryStore.Put(ctx, key, data, ct)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, key)
}

type fixture struct {
	repo     Repository
	blobs    *storage.MemoryStore
	quota    *fakeQuota
	notifier *recordingNotifier
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		repo:     NewRepository(setupTestDB(t)),
		blobs:    storage.NewMemoryStore(),
		quota:    &fakeQuota{limit: 1 << 20},
		notifier: &recordingNotifier{},
	}
	fx.svc = NewService(fx.repo, fx.blobs, fx.quota, fx.notifier, testLimits, "http://share.test/")
	return fx
}

func (fx *fixture) upload(t *testing.T, userID int64, opts UploadOptions) *File {
	t.Helper()
	f, err := fx.svc.Upload(context.Background(), userID, UploadInput{
		Filename: "report.pdf",
		Data:     []byte("%PDF-1.4 test content"),
		Options:  opts,
	})
	require.NoError(t, err)
	return f
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
