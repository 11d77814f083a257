package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Application roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Profile holds display details for an authenticated user.
type Profile struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:64;not null;uniqueIndex" json:"user_id"`
	DisplayName *string   `gorm:"size:255" json:"display_name"`
	AvatarURL   *string   `gorm:"size:512" json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns an opaque identifier when none was provided.
func (p *Profile) BeforeCreate(*gorm.DB) error {
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// UserRole grants a role to a user.
type UserRole struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"size:64;not null;index:idx_user_role,unique" json:"user_id"`
	Role   string `gorm:"size:16;not null;index:idx_user_role,unique" json:"role"`
}

// BeforeCreate assigns an opaque identifier when none was provided.
func (r *UserRole) BeforeCreate(*gorm.DB) error {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
