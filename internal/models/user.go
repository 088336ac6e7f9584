package models

import "time"

// User describes an authenticated account. Authentication itself lives at the
// edge; domain services only ever consume the resolved user id.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	DisplayName string `json:"display_name"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// IsModerator grants access to the message report queue.
	IsModerator bool `gorm:"default:false" json:"is_moderator"`

	LastLoginAt *time.Time `json:"last_login_at"`
}

// Name returns the preferred display identity for API payloads.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
