package notification

import "time"

type Template string

const (
	TemplateFileUploaded Template = "file_uploaded"
	TemplateFileAccessed Template = "file_accessed"
	TemplateFileExpiring Template = "file_expiring"
	TemplateFileShared   Template = "file_shared"
)

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Event is a request to notify someone about a file. UserID names the file
// owner; Recipient overrides the owner's address (shares).
type Event struct {
	Template  Template
	UserID    int64
	Recipient string
	FileID    string
	Filename  string
	Data      map[string]string
}

// EmailNotification is the delivery record kept for every send attempt.
type EmailNotification struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	UserID       int64      `gorm:"index:idx_email_notifications_user_created,priority:1" json:"user_id"`
	FileID       string     `gorm:"size:36;index" json:"file_id,omitempty"`
	Recipient    string     `gorm:"not null" json:"recipient"`
	Template     Template   `gorm:"size:50;not null" json:"template"`
	Subject      string     `gorm:"size:255;not null" json:"subject"`
	Status       Status     `gorm:"size:20;not null" json:"status"`
	MessageID    string     `json:"message_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `gorm:"index:idx_email_notifications_user_created,priority:2" json:"created_at"`
}

func (EmailNotification) TableName() string { return "email_notifications" }
