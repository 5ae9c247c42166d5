package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values assignable to a user. Privilege ordering: user < moderator < admin.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName string    `gorm:"size:50" json:"first_name,omitempty"`
	LastName  string    `gorm:"size:50" json:"last_name,omitempty"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	Role      string    `gorm:"default:'user';not null" json:"role"`
	Superuser bool      `gorm:"default:false;not null" json:"-"`
	IsActive  bool      `gorm:"default:false;not null" json:"-"` // false until confirmation code exchange
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

// IsAdmin reports whether the user holds administrator rights.
// Superusers are admins regardless of their stored role.
func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin || user.Superuser
}

// IsModerator reports whether the user holds at least moderator rights.
func (user *User) IsModerator() bool {
	return user.Role == RoleModerator || user.IsAdmin()
}

func (User) TableName() string {
	return "users"
}
