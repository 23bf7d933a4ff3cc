package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is owned by the platform's REST backend. The relay only reads the
// identity/display fields and writes the presence columns (is_online,
// last_active).
type User struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName   string     `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName    string     `gorm:"type:varchar(100);not null" json:"lastName"`
	Gender      string     `gorm:"type:varchar(20)" json:"gender,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Religion    string     `gorm:"type:varchar(100)" json:"religion,omitempty"`
	City        string     `gorm:"type:varchar(100)" json:"city,omitempty"`
	Avatar      *string    `gorm:"type:text" json:"avatar,omitempty"`
	IsOnline    bool       `gorm:"default:false;index" json:"isOnline"`
	LastActive  time.Time  `json:"lastActive"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// FullName is what the relay puts in the userName fields of typing and
// notification events.
func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// AvatarURL returns the avatar or an empty string when unset.
func (u *User) AvatarURL() string {
	if u.Avatar == nil {
		return ""
	}
	return *u.Avatar
}
