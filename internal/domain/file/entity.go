package file

import (
	"time"
)

// File is a shared upload together with its access policy and view counter.
type File struct {
	ID                  string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID              int64      `gorm:"not null;index" json:"user_id"`
	Filename            string     `gorm:"size:255;not null" json:"filename"`
	OriginalFilename    string     `gorm:"size:255;not null" json:"original_filename"`
	FileSize            int64      `gorm:"not null" json:"file_size"`
	FileHash            string     `gorm:"size:64;not null" json:"file_hash"`
	ContentType         string     `gorm:"size:100;not null" json:"content_type"`
	StorageKey          string     `gorm:"size:500;not null" json:"-"`
	StorageBackend      string     `gorm:"size:20;not null" json:"storage_backend"`
	AccessToken         string     `gorm:"size:64;not null;uniqueIndex" json:"access_token"`
	PasswordHash        *string    `gorm:"size:255" json:"-"`
	ExpiryHours         int        `gorm:"not null" json:"expiry_hours"`
	ExpiresAt           time.Time  `gorm:"not null;index" json:"expires_at"`
	MaxViews            int        `gorm:"not null" json:"max_views"`
	CurrentViews        int        `gorm:"not null;default:0" json:"current_views"`
	MaxViewsPerConsumer int        `gorm:"not null;default:0" json:"max_views_per_consumer"`
	SessionDuration     int        `gorm:"not null" json:"session_duration"`
	RequireSignin       bool       `gorm:"not null" json:"require_signin"`
	DisableDownload     bool       `gorm:"not null" json:"disable_download"`
	IsActive            bool       `gorm:"not null" json:"is_active"`
	IsDeleted           bool       `gorm:"not null;index" json:"is_deleted"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
	ExpiryNotifiedAt    *time.Time `json:"-"`
	BlobPurgedAt        *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (File) TableName() string { return "files" }

func (f *File) IsExpired(now time.Time) bool {
	return now.After(f.ExpiresAt)
}

func (f *File) ViewLimitReached() bool {
	return f.CurrentViews >= f.MaxViews
}

func (f *File) HasPassword() bool {
	return f.PasswordHash != nil && *f.PasswordHash != ""
}

// SessionWindow is the idle gap that ends a viewing session.
func (f *File) SessionWindow() time.Duration {
	minutes := f.SessionDuration
	if minutes <= 0 {
		minutes = DefaultSessionMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (f *File) ViewsRemaining() int {
	if f.CurrentViews >= f.MaxViews {
		return 0
	}
	return f.MaxViews - f.CurrentViews
}

func (f *File) TimeRemaining(now time.Time) time.Duration {
	if d := f.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

type ShareMethod string

const (
	ShareEmail ShareMethod = "email"
	ShareLink  ShareMethod = "link"
	ShareQR    ShareMethod = "qr"
)

// FileShare records that an owner handed the link to someone.
type FileShare struct {
	ID             int64       `gorm:"primaryKey" json:"id"`
	FileID         string      `gorm:"type:varchar(36);not null;index" json:"file_id"`
	SharedBy       int64       `gorm:"not null" json:"shared_by"`
	ShareMethod    ShareMethod `gorm:"size:20;not null" json:"share_method"`
	RecipientEmail *string     `gorm:"size:255" json:"recipient_email,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

func (FileShare) TableName() string { return "file_shares" }
