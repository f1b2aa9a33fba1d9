package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	TierBasic   = "basic"
	TierPremium = "premium"
)

// User is both the credential record and the public profile.
type User struct {
	ID                    uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email                 string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password              string         `gorm:"not null" json:"-"`
	DisplayName           string         `gorm:"size:120" json:"display_name"`
	Role                  string         `gorm:"size:20;default:'user'" json:"role"`
	SubscriptionTier      string         `gorm:"size:20;default:'basic'" json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time     `json:"subscription_expires_at"`
	IsActive              bool           `gorm:"default:true" json:"is_active"`
	AvatarURL             string         `gorm:"size:512" json:"avatar_url"`
	EmailConfirmedAt      *time.Time     `json:"email_confirmed_at"`
	LastSignInAt          *time.Time     `json:"last_sign_in_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsConfirmed() bool {
	return u.EmailConfirmedAt != nil
}

// IsPremium reports whether the premium tier is still in effect at now.
func (u *User) IsPremium(now time.Time) bool {
	if u.SubscriptionTier != TierPremium {
		return false
	}
	return u.SubscriptionExpiresAt == nil || u.SubscriptionExpiresAt.After(now)
}
