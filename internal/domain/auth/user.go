package auth

import "time"

// User owns uploaded files and, when signed in, is also a consumer whose
// views are accounted per user id.
type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `json:"name"`
	StorageUsed  int64      `gorm:"not null;default:0" json:"storage_used"`
	StorageQuota int64      `gorm:"not null" json:"storage_quota"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// StorageAvailable is the number of bytes the user can still upload.
func (u *User) StorageAvailable() int64 {
	if u.StorageUsed >= u.StorageQuota {
		return 0
	}
	return u.StorageQuota - u.StorageUsed
}
