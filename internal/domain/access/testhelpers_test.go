package access

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vaultshare/internal/database"
	"vaultshare/internal/domain/activity"
	"vaultshare/internal/domain/file"
	"vaultshare/internal/domain/notification"
	"vaultshare/internal/storage"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:access_test_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db, &file.File{}, &AccessLog{}))
	return db
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
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

type recordingPublisher struct {
	mu     sync.Mutex
	events map[int64][]activity.Event
}

func (p *recordingPublisher) Publish(ownerID int64, ev activity.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[int64][]activity.Event)
	}
	p.events[ownerID] = append(p.events[ownerID], ev)
}

func (p *recordingPublisher) For(ownerID int64) []activity.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]activity.Event(nil), p.events[ownerID]...)
}

// flakyFiles fails IncrementViews on demand.
type flakyFiles struct {
	file.Repository
	incErr error
}

func (f *flakyFiles) IncrementViews(ctx context.Context, id string) (bool, error) {
	if f.incErr != nil {
		return false, f.incErr
	}
	return f.Repository.IncrementViews(ctx, id)
}

type fixture struct {
	db        *gorm.DB
	files     file.Repository
	ledger    Ledger
	blobs     *storage.MemoryStore
	notifier  *recordingNotifier
	publisher *recordingPublisher
	clock     *clock
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	fx := &fixture{
		db:        db,
		files:     file.NewRepository(db),
		ledger:    NewLedger(db),
		blobs:     storage.NewMemoryStore(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		clock:     &clock{now: t0},
	}
	fx.svc = NewService(fx.files, fx.ledger, fx.blobs, fx.notifier, fx.publisher)
	fx.svc.now = fx.clock.Now
	return fx
}

var fileSeq int

// seed creates a stored file owned by user 1 with a 10 minute session.
func (fx *fixture) seed(t *testing.T, mutate func(f *file.File)) *file.File {
	t.Helper()
	fileSeq++
	f := &file.File{
		ID:               fmt.Sprintf("00000000-0000-0000-0000-%012d", fileSeq),
		UserID:           1,
		Filename:         "report.pdf",
		OriginalFilename: "report.pdf",
		FileSize:         5,
		FileHash:         "hash",
		ContentType:      "application/pdf",
		StorageKey:       fmt.Sprintf("uploads/1/2026/05/%d_report.pdf", fileSeq),
		StorageBackend:   "memory",
		AccessToken:      fmt.Sprintf("token%027d", fileSeq),
		ExpiryHours:      24,
		ExpiresAt:        t0.Add(24 * time.Hour),
		MaxViews:         10,
		SessionDuration:  10,
		IsActive:         true,
	}
	if mutate != nil {
		mutate(f)
	}
	require.NoError(t, fx.blobs.Put(context.Background(), f.StorageKey, []byte("hello"), f.ContentType))
	require.NoError(t, fx.files.Create(context.Background(), f))
	return f
}

func (fx *fixture) reload(t *testing.T, id string) *file.File {
	t.Helper()
	f, err := fx.files.GetByID(context.Background(), id)
	require.NoError(t, err)
	return f
}

func (fx *fixture) logCount(t *testing.T, fileID string) int {
	t.Helper()
	logs, err := fx.ledger.Query(context.Background(), fileID, Filter{})
	require.NoError(t, err)
	return len(logs)
}

func (fx *fixture) serve(t *testing.T, token string, id Identity) *Result {
	t.Helper()
	res, err := fx.svc.ServeDecision(context.Background(), Request{Token: token, Identity: id, ClientIP: id.IP()})
	require.NoError(t, err)
	return res
}
