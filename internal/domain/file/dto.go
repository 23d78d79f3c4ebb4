package file

import "time"

// UploadOptions are the policy fields sent alongside the multipart file.
// Zero values take the configured defaults.
type UploadOptions struct {
	Password            string `form:"password" json:"password" validate:"max=128"`
	ExpiryHours         int    `form:"expiry_hours" json:"expiry_hours" validate:"min=0"`
	MaxViews            int    `form:"max_views" json:"max_views" validate:"min=0,max=100000"`
	MaxViewsPerConsumer int    `form:"max_views_per_consumer" json:"max_views_per_consumer" validate:"min=0"`
	SessionDuration     int    `form:"session_duration" json:"session_duration" validate:"min=0,max=1440"`
	RequireSignin       bool   `form:"require_signin" json:"require_signin"`
	DisableDownload     bool   `form:"disable_download" json:"disable_download"`
}

type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	Options     UploadOptions
}

type UpdateRequest struct {
	IsActive        *bool `json:"is_active"`
	DisableDownload *bool `json:"disable_download"`
}

type ShareRequest struct {
	Method         ShareMethod `json:"method" validate:"required,oneof=email link qr"`
	RecipientEmail string      `json:"recipient_email" validate:"required_if=Method email,omitempty,email"`
}

type ShareResult struct {
	Share     *FileShare `json:"share"`
	AccessURL string     `json:"access_url"`
}

// FileResponse is the owner-facing view of a file.
type FileResponse struct {
	*File
	AccessURL            string `json:"access_url"`
	HasPassword          bool   `json:"has_password"`
	ViewsRemaining       int    `json:"views_remaining"`
	TimeRemainingSeconds int64  `json:"time_remaining_seconds"`
	IsExpired            bool   `json:"is_expired"`
}

func NewFileResponse(f *File, accessURL string, now time.Time) FileResponse {
	return FileResponse{
		File:                 f,
		AccessURL:            accessURL,
		HasPassword:          f.HasPassword(),
		ViewsRemaining:       f.ViewsRemaining(),
		TimeRemainingSeconds: int64(f.TimeRemaining(now).Seconds()),
		IsExpired:            f.IsExpired(now),
	}
}
