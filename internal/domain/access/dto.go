package access

import (
	"time"

	"vaultshare/internal/domain/file"
)

// AccessRequest is the body of the public validate/view/download calls.
type AccessRequest struct {
	Token    string  `json:"token" binding:"required"`
	Password *string `json:"password"`
}

type ReportRequest struct {
	Token string `json:"token" binding:"required"`
}

// FileInfo is what a recipient may learn about a file once access is granted.
type FileInfo struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	FileSize        int64     `json:"file_size"`
	ContentType     string    `json:"content_type"`
	DisableDownload bool      `json:"disable_download"`
	RequireSignin   bool      `json:"require_signin"`
	ViewsRemaining  int       `json:"views_remaining"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func NewFileInfo(f *file.File) FileInfo {
	return FileInfo{
		ID:              f.ID,
		Filename:        f.OriginalFilename,
		FileSize:        f.FileSize,
		ContentType:     f.ContentType,
		DisableDownload: f.DisableDownload,
		RequireSignin:   f.RequireSignin,
		ViewsRemaining:  f.ViewsRemaining(),
		ExpiresAt:       f.ExpiresAt,
	}
}

type ValidateResponse struct {
	Valid bool     `json:"valid"`
	File  FileInfo `json:"file"`
}

// ServeLink points the client at the streaming endpoint.
type ServeLink struct {
	URL      string   `json:"url"`
	Download bool     `json:"download"`
	File     FileInfo `json:"file"`
}
