package access

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AccessLog is one access attempt. Rows are append-only.
type AccessLog struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	FileID        string    `gorm:"type:varchar(36);not null;index:idx_access_logs_file_time,priority:1" json:"file_id"`
	ConsumerID    *int64    `gorm:"index" json:"consumer_id,omitempty"`
	ClientIP      string    `gorm:"size:45" json:"client_ip"`
	UserAgent     string    `gorm:"size:500" json:"user_agent"`
	Granted       bool      `gorm:"not null" json:"granted"`
	Method        Method    `gorm:"size:30;not null" json:"method"`
	FailureReason Reason    `gorm:"size:50" json:"failure_reason,omitempty"`
	CreatedAt     time.Time `gorm:"not null;index:idx_access_logs_file_time,priority:2" json:"created_at"`
}

func (AccessLog) TableName() string { return "access_logs" }

// Identity is the consumer when signed in, otherwise the client IP.
func (l *AccessLog) Identity() Identity {
	if l.ConsumerID != nil {
		return SignedIn(*l.ConsumerID)
	}
	return Anonymous(l.ClientIP)
}

// Filter narrows a ledger query. Zero values mean "no restriction".
type Filter struct {
	Identity    *Identity
	GrantedOnly bool
	Methods     []Method
	Since       time.Time
	Limit       int
}

type Ledger interface {
	Record(ctx context.Context, l *AccessLog) error
	Query(ctx context.Context, fileID string, f Filter) ([]AccessLog, error)
	// LastGranted returns the newest granted view or download by id, or nil
	// when there is none.
	LastGranted(ctx context.Context, fileID string, id Identity) (*AccessLog, error)
}

type ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (r *ledger) Record(ctx context.Context, l *AccessLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *ledger) Query(ctx context.Context, fileID string, f Filter) ([]AccessLog, error) {
	q := r.db.WithContext(ctx).Where("file_id = ?", fileID)
	if f.Identity != nil {
		q = whereIdentity(q, *f.Identity)
	}
	if f.GrantedOnly {
		q = q.Where("granted = ?", true)
	}
	if len(f.Methods) > 0 {
		q = q.Where("method IN ?", f.Methods)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []AccessLog
	err := q.Order("created_at ASC, id ASC").Find(&logs).Error
	return logs, err
}

// LastGranted returns the identity's latest granted view or download, or
// nil when there is none. A first access is the common case, so an empty
// result is not treated as an error.
func (r *ledger) LastGranted(ctx context.Context, fileID string, id Identity) (*AccessLog, error) {
	var logs []AccessLog
	q := r.db.WithContext(ctx).
		Where("file_id = ? AND granted = ? AND method IN ?", fileID, true, contentMethods)
	err := whereIdentity(q, id).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return &logs[0], nil
}

func whereIdentity(q *gorm.DB, id Identity) *gorm.DB {
	if id.IsSignedIn() {
		return q.Where("consumer_id = ?", id.ConsumerID())
	}
	return q.Where("consumer_id IS NULL AND client_ip = ?", id.IP())
}
