package file

import (
	"context"
	"errors"
	"log"
	"time"

	"vaultshare/internal/config"
	"vaultshare/internal/domain/notification"
	"vaultshare/internal/metrics"
	"vaultshare/internal/storage"
)

const (
	CleanupReasonExpired   = "expired"
	CleanupReasonViewLimit = "view_limit"
	CleanupReasonMaxAge    = "max_age"
)

type CleanupStats struct {
	Scanned  int            `json:"scanned"`
	Deleted  int            `json:"deleted"`
	Purged   int            `json:"purged"`
	Failed   int            `json:"failed"`
	ByReason map[string]int `json:"by_reason"`
}

// CleanupService removes files that can no longer be served and sends
// expiry notices ahead of time.
type CleanupService struct {
	repo     Repository
	blobs    storage.BlobStore
	quota    quotaManager
	notifier notification.Notifier
	cfg      config.CleanupConfig
	now      func() time.Time
}

func NewCleanupService(repo Repository, blobs storage.BlobStore, quota quotaManager, notifier notification.Notifier, cfg config.CleanupConfig) *CleanupService {
	return &CleanupService{
		repo:     repo,
		blobs:    blobs,
		quota:    quota,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run processes one batch of live files that can no longer be served, then
// one batch of owner-deleted files whose blobs are still stored. A file
// whose blob cannot be removed is left untouched so the next sweep retries it.
func (c *CleanupService) Run(ctx context.Context) (*CleanupStats, error) {
	startTime := c.now()
	stats := &CleanupStats{ByReason: map[string]int{}}

	createdBefore := startTime.Add(-c.cfg.MaxFileAge)
	if c.cfg.MaxFileAge <= 0 {
		createdBefore = time.Time{}
	}
	files, err := c.repo.CleanupCandidates(ctx, startTime, createdBefore, c.batchSize())
	if err != nil {
		return nil, err
	}
	stats.Scanned = len(files)

	for i := range files {
		f := &files[i]
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		reason := cleanupReason(f, startTime)
		if err := c.blobs.Delete(ctx, f.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("cleanup_blob_failed file_id=%s key=%s err=%v", f.ID, f.StorageKey, err)
			stats.Failed++
			continue
		}

		changed, err := c.repo.SoftDelete(ctx, f.ID, startTime)
		if err != nil {
			log.Printf("cleanup_delete_failed file_id=%s err=%v", f.ID, err)
			stats.Failed++
			continue
		}
		if err := c.repo.MarkBlobPurged(ctx, f.ID, startTime); err != nil {
			log.Printf("cleanup_mark_purged_failed file_id=%s err=%v", f.ID, err)
		}
		if changed {
			if err := c.quota.ReleaseStorage(ctx, f.UserID, f.FileSize); err != nil {
				log.Printf("quota_release_failed user_id=%d file_id=%s err=%v", f.UserID, f.ID, err)
			}
		}

		stats.Deleted++
		stats.ByReason[reason]++
		metrics.CleanupDeleted.WithLabelValues(reason).Inc()
	}

	if err := c.purgeDeleted(ctx, startTime, stats); err != nil {
		return stats, err
	}

	log.Printf("cleanup_completed scanned=%d deleted=%d purged=%d failed=%d by_reason=%v duration=%s",
		stats.Scanned, stats.Deleted, stats.Purged, stats.Failed, stats.ByReason, time.Since(startTime))
	return stats, nil
}

// purgeDeleted removes the blobs of files their owners already deleted.
// Quota was released at delete time.
func (c *CleanupService) purgeDeleted(ctx context.Context, now time.Time, stats *CleanupStats) error {
	files, err := c.repo.PurgeCandidates(ctx, c.batchSize())
	if err != nil {
		return err
	}
	for i := range files {
		f := &files[i]
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.blobs.Delete(ctx, f.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("cleanup_blob_failed file_id=%s key=%s err=%v", f.ID, f.StorageKey, err)
			stats.Failed++
			continue
		}
		if err := c.repo.MarkBlobPurged(ctx, f.ID, now); err != nil {
			log.Printf("cleanup_mark_purged_failed file_id=%s err=%v", f.ID, err)
			stats.Failed++
			continue
		}
		stats.Purged++
	}
	return nil
}

// NotifyExpiring sends one expiry notice per file expiring within the
// configured window and returns how many were sent.
func (c *CleanupService) NotifyExpiring(ctx context.Context) (int, error) {
	now := c.now()
	files, err := c.repo.ExpiringBetween(ctx, now, now.Add(c.cfg.ExpiryNoticeWindow), c.batchSize())
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range files {
		f := &files[i]
		claimed, err := c.repo.MarkExpiryNotified(ctx, f.ID, now)
		if err != nil {
			log.Printf("expiry_notice_mark_failed file_id=%s err=%v", f.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		c.notifier.Notify(ctx, notification.Event{
			Template: notification.TemplateFileExpiring,
			UserID:   f.UserID,
			FileID:   f.ID,
			Filename: f.OriginalFilename,
			Data:     map[string]string{"expires_at": f.ExpiresAt.UTC().Format(time.RFC1123)},
		})
		sent++
	}
	if sent > 0 {
		log.Printf("expiry_notices_sent count=%d", sent)
	}
	return sent, nil
}

func (c *CleanupService) batchSize() int {
	if c.cfg.BatchSize <= 0 {
		return 100
	}
	return c.cfg.BatchSize
}

func cleanupReason(f *File, now time.Time) string {
	switch {
	case f.IsExpired(now):
		return CleanupReasonExpired
	case f.ViewLimitReached():
		return CleanupReasonViewLimit
	default:
		return CleanupReasonMaxAge
	}
}
