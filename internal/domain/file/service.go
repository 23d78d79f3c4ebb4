package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vaultshare/internal/config"
	"vaultshare/internal/domain/auth"
	"vaultshare/internal/domain/notification"
	"vaultshare/internal/metrics"
	"vaultshare/internal/pkg/token"
	"vaultshare/internal/storage"
)

const (
	DefaultSessionMinutes = 15
	tokenAttempts         = 3
)

type quotaManager interface {
	ReserveStorage(ctx context.Context, userID int64, bytes int64) error
	ReleaseStorage(ctx context.Context, userID int64, bytes int64) error
}

// Service handles uploads and owner-side file management.
type Service struct {
	repo      Repository
	blobs     storage.BlobStore
	quota     quotaManager
	notifier  notification.Notifier
	limits    config.LimitsConfig
	publicURL string
	now       func() time.Time
}

func NewService(repo Repository, blobs storage.BlobStore, quota quotaManager, notifier notification.Notifier, limits config.LimitsConfig, publicURL string) *Service {
	return &Service{
		repo:      repo,
		blobs:     blobs,
		quota:     quota,
		notifier:  notifier,
		limits:    limits,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// AccessURL is the link a recipient opens.
func (s *Service) AccessURL(f *File) string {
	return s.publicURL + "/access/" + f.AccessToken
}

// Upload stores the blob and creates the file record. Quota is reserved
// first and released again if any later step fails.
func (s *Service) Upload(ctx context.Context, userID int64, in UploadInput) (*File, error) {
	size := int64(len(in.Data))
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if s.limits.MaxFileSize > 0 && size > s.limits.MaxFileSize {
		return nil, ErrFileTooLarge
	}
	opts, err := s.normalizeOptions(in.Options)
	if err != nil {
		return nil, err
	}

	if err := s.quota.ReserveStorage(ctx, userID, size); err != nil {
		if errors.Is(err, auth.ErrQuotaExceeded) {
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("reserve storage: %w", err)
	}

	f, err := s.store(ctx, userID, in, opts, size)
	if err != nil {
		if relErr := s.quota.ReleaseStorage(ctx, userID, size); relErr != nil {
			log.Printf("quota_release_failed user_id=%d bytes=%d err=%v", userID, size, relErr)
		}
		return nil, err
	}

	metrics.FilesUploaded.Inc()
	log.Printf("file_uploaded file_id=%s user_id=%d size=%d backend=%s", f.ID, userID, size, f.StorageBackend)

	s.notifier.Notify(ctx, notification.Event{
		Template: notification.TemplateFileUploaded,
		UserID:   userID,
		FileID:   f.ID,
		Filename: f.OriginalFilename,
		Data: map[string]string{
			"access_url": s.AccessURL(f),
			"expires_at": f.ExpiresAt.UTC().Format(time.RFC1123),
			"max_views":  strconv.Itoa(f.MaxViews),
		},
	})
	return f, nil
}

func (s *Service) store(ctx context.Context, userID int64, in UploadInput, opts UploadOptions, size int64) (*File, error) {
	now := s.now()
	sum := sha256.Sum256(in.Data)

	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = strings.Split(http.DetectContentType(in.Data), ";")[0]
	}

	key := storage.NewKey(userID, in.Filename, now)
	if err := s.blobs.Put(ctx, key, in.Data, contentType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	f := &File{
		ID:                  uuid.New().String(),
		UserID:              userID,
		Filename:            filepath.Base(key),
		OriginalFilename:    originalName(in.Filename),
		FileSize:            size,
		FileHash:            hex.EncodeToString(sum[:]),
		ContentType:         contentType,
		StorageKey:          key,
		StorageBackend:      s.blobs.Name(),
		ExpiryHours:         opts.ExpiryHours,
		ExpiresAt:           now.Add(time.Duration(opts.ExpiryHours) * time.Hour),
		MaxViews:            opts.MaxViews,
		MaxViewsPerConsumer: opts.MaxViewsPerConsumer,
		SessionDuration:     opts.SessionDuration,
		RequireSignin:       opts.RequireSignin,
		DisableDownload:     opts.DisableDownload,
		IsActive:            true,
	}
	if opts.Password != "" {
		hash, err := auth.HashPassword(opts.Password)
		if err != nil {
			s.deleteBlob(ctx, key)
			return nil, err
		}
		f.PasswordHash = &hash
	}

	if err := s.createWithToken(ctx, f); err != nil {
		s.deleteBlob(ctx, key)
		return nil, fmt.Errorf("save file record: %w", err)
	}
	return f, nil
}

// createWithToken retries with a fresh token when the generated one is taken.
func (s *Service) createWithToken(ctx context.Context, f *File) error {
	var err error
	for i := 0; i < tokenAttempts; i++ {
		f.AccessToken, err = token.Generate(token.DefaultLength)
		if err != nil {
			return err
		}
		err = s.repo.Create(ctx, f)
		if !errors.Is(err, ErrTokenCollision) {
			return err
		}
	}
	return err
}

func (s *Service) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		log.Printf("blob_rollback_failed key=%s err=%v", key, err)
	}
}

func (s *Service) normalizeOptions(o UploadOptions) (UploadOptions, error) {
	if o.ExpiryHours == 0 {
		o.ExpiryHours = s.limits.DefaultExpiryHours
	}
	if o.MaxViews == 0 {
		o.MaxViews = s.limits.DefaultMaxViews
	}
	if o.SessionDuration == 0 {
		o.SessionDuration = s.limits.DefaultSessionMinutes
	}
	if o.SessionDuration == 0 {
		o.SessionDuration = DefaultSessionMinutes
	}

	switch {
	case o.ExpiryHours < 1 || (s.limits.MaxExpiryHours > 0 && o.ExpiryHours > s.limits.MaxExpiryHours):
		return o, fmt.Errorf("%w: expiry_hours must be between 1 and %d", ErrInvalidOptions, s.limits.MaxExpiryHours)
	case o.MaxViews < 1:
		return o, fmt.Errorf("%w: max_views must be at least 1", ErrInvalidOptions)
	case o.MaxViewsPerConsumer < 0:
		return o, fmt.Errorf("%w: max_views_per_consumer must not be negative", ErrInvalidOptions)
	case o.SessionDuration < 1:
		return o, fmt.Errorf("%w: session_duration must be at least 1 minute", ErrInvalidOptions)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]File, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetOwned loads a live file and checks that userID owns it.
func (s *Service) GetOwned(ctx context.Context, userID int64, id string) (*File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.IsDeleted {
		return nil, ErrFileNotFound
	}
	if f.UserID != userID {
		return nil, ErrForbidden
	}
	return f, nil
}

func (s *Service) Update(ctx context.Context, userID int64, id string, req UpdateRequest) (*File, error) {
	if _, err := s.GetOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, Update{IsActive: req.IsActive, DisableDownload: req.DisableDownload}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete soft-deletes the record and gives the bytes back to the owner's
// quota. The blob stays until the next cleanup sweep purges it.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	f, err := s.GetOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	changed, err := s.repo.SoftDelete(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !changed {
		return ErrAlreadyDeleted
	}
	if err := s.quota.ReleaseStorage(ctx, userID, f.FileSize); err != nil {
		log.Printf("quota_release_failed user_id=%d file_id=%s err=%v", userID, id, err)
	}
	log.Printf("file_deleted file_id=%s user_id=%d", id, userID)
	return nil
}

func (s *Service) Share(ctx context.Context, userID int64, sharedBy string, id string, req ShareRequest) (*ShareResult, error) {
	f, err := s.GetOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Method == ShareEmail && req.RecipientEmail == "" {
		return nil, fmt.Errorf("%w: recipient_email is required for email shares", ErrInvalidShare)
	}

	share := &FileShare{FileID: f.ID, SharedBy: userID, ShareMethod: req.Method}
	if req.RecipientEmail != "" {
		email := strings.ToLower(strings.TrimSpace(req.RecipientEmail))
		share.RecipientEmail = &email
	}
	if err := s.repo.CreateShare(ctx, share); err != nil {
		return nil, err
	}

	accessURL := s.AccessURL(f)
	if share.RecipientEmail != nil {
		s.notifier.Notify(ctx, notification.Event{
			Template:  notification.TemplateFileShared,
			UserID:    userID,
			Recipient: *share.RecipientEmail,
			FileID:    f.ID,
			Filename:  f.OriginalFilename,
			Data:      map[string]string{"access_url": accessURL, "shared_by": sharedBy},
		})
	}
	log.Printf("file_shared file_id=%s user_id=%d method=%s", f.ID, userID, req.Method)
	return &ShareResult{Share: share, AccessURL: accessURL}, nil
}

func (s *Service) Shares(ctx context.Context, userID int64, id string) ([]FileShare, error) {
	if _, err := s.GetOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.ListShares(ctx, id)
}

func originalName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}

func (s *Service) MaxFileSize() int64 { return s.limits.MaxFileSize }
