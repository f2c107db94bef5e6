package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is a portal account. Passwords are stored as bcrypt hashes only and
// accounts are deactivated instead of deleted.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"column:password;size:255;not null" json:"-"`
	FullName     string    `gorm:"size:128;not null" json:"full_name"`
	Avatar       string    `gorm:"size:512" json:"avatar"`
	Role         string    `gorm:"size:16;not null" json:"role"`
	Status       string    `gorm:"size:16;not null;index" json:"status"`
	CanPost      bool      `gorm:"not null" json:"can_post"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate fills role and status when the caller left them empty.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) IsActive() bool { return u.Status == StatusActive }
