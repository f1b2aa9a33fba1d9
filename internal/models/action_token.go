package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSignup   = "signup"
	ActionRecovery = "recovery"
)

// ActionToken is a single-use emailed token (signup confirmation, password recovery).
type ActionToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind      string     `gorm:"size:20;not null;index" json:"kind"`
	TokenHash string     `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}
