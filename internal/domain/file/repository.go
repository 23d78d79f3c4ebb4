package file

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"vaultshare/internal/database"
)

// Update carries the fields an owner may change after upload.
type Update struct {
	IsActive        *bool
	DisableDownload *bool
}

type Repository interface {
	Create(ctx context.Context, f *File) error
	GetByID(ctx context.Context, id string) (*File, error)
	GetByToken(ctx context.Context, token string) (*File, error)
	ListByUser(ctx context.Context, userID int64) ([]File, error)
	Update(ctx context.Context, id string, u Update) error
	SoftDelete(ctx context.Context, id string, at time.Time) (bool, error)
	IncrementViews(ctx context.Context, id string) (bool, error)

	CleanupCandidates(ctx context.Context, now time.Time, createdBefore time.Time, limit int) ([]File, error)
	ExpiringBetween(ctx context.Context, from, to time.Time, limit int) ([]File, error)
	MarkExpiryNotified(ctx context.Context, id string, at time.Time) (bool, error)
	PurgeCandidates(ctx context.Context, limit int) ([]File, error)
	MarkBlobPurged(ctx context.Context, id string, at time.Time) error

	CreateShare(ctx context.Context, s *FileShare) error
	ListShares(ctx context.Context, fileID string) ([]FileShare, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, f *File) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrTokenCollision
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*File, error) {
	var f File
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByToken resolves a share link. Deleted files are returned as well so
// callers can tell "deleted" from "never existed".
func (r *repository) GetByToken(ctx context.Context, token string) (*File, error) {
	var f File
	err := r.db.WithContext(ctx).Where("access_token = ?", token).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]File, error) {
	var files []File
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (r *repository) Update(ctx context.Context, id string, u Update) error {
	updates := map[string]any{}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.DisableDownload != nil {
		updates["disable_download"] = *u.DisableDownload
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&File{}).Where("id = ?", id).Updates(updates).Error
}

// SoftDelete marks the file deleted and reports whether this call did it.
func (r *repository) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&File{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"is_deleted": true, "deleted_at": at, "is_active": false})
	return res.RowsAffected > 0, res.Error
}

// IncrementViews adds one view unless the file is already at its limit.
// The check and the write are a single statement, so concurrent callers can
// never push current_views past max_views or lose an increment.
func (r *repository) IncrementViews(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&File{}).
		Where("id = ? AND current_views < max_views", id).
		UpdateColumn("current_views", gorm.Expr("current_views + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CleanupCandidates returns live files that are expired, at their view limit
// or created before createdBefore.
func (r *repository) CleanupCandidates(ctx context.Context, now time.Time, createdBefore time.Time, limit int) ([]File, error) {
	var files []File
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("expires_at < ? OR current_views >= max_views OR created_at < ?", now, createdBefore).
		Order("expires_at ASC").
		Limit(limit).
		Find(&files).Error
	return files, err
}

func (r *repository) ExpiringBetween(ctx context.Context, from, to time.Time, limit int) ([]File, error) {
	var files []File
	err := r.db.WithContext(ctx).
		Where("is_deleted = ? AND is_active = ? AND expiry_notified_at IS NULL", false, true).
		Where("expires_at >= ? AND expires_at <= ?", from, to).
		Order("expires_at ASC").
		Limit(limit).
		Find(&files).Error
	return files, err
}

// MarkExpiryNotified claims the expiry notice for a file. Only the first
// caller gets true.
func (r *repository) MarkExpiryNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&File{}).
		Where("id = ? AND expiry_notified_at IS NULL", id).
		UpdateColumn("expiry_notified_at", at)
	return res.RowsAffected > 0, res.Error
}

// PurgeCandidates returns deleted files whose blob is still in storage.
func (r *repository) PurgeCandidates(ctx context.Context, limit int) ([]File, error) {
	var files []File
	err := r.db.WithContext(ctx).
		Where("is_deleted = ? AND blob_purged_at IS NULL", true).
		Order("deleted_at ASC").
		Limit(limit).
		Find(&files).Error
	return files, err
}

func (r *repository) MarkBlobPurged(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&File{}).
		Where("id = ?", id).
		UpdateColumn("blob_purged_at", at).Error
}

func (r *repository) CreateShare(ctx context.Context, s *FileShare) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) ListShares(ctx context.Context, fileID string) ([]FileShare, error) {
	var shares []FileShare
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).Order("created_at DESC").Find(&shares).Error
	return shares, err
}
