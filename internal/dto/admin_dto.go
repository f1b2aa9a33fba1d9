package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
)

// AdminProfileFields are the optional profile columns an admin may overwrite.
type AdminProfileFields struct {
	DisplayName           *string    `json:"display_name" validate:"omitempty,max=120"`
	Role                  *string    `json:"role" validate:"omitempty,oneof=user admin"`
	SubscriptionTier      *string    `json:"subscription_tier" validate:"omitempty,oneof=basic premium"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	IsActive              *bool      `json:"is_active"`
	AvatarURL             *string    `json:"avatar_url" validate:"omitempty,max=512"`
}

// AdminUpdateUserRequest is the body of the privileged admin-update-user function.
type AdminUpdateUserRequest struct {
	UserID   string              `json:"userId"`
	Email    *string             `json:"email" validate:"omitempty,email,max=255"`
	Password *string             `json:"password" validate:"omitempty,min=8,max=72"`
	Profile  *AdminProfileFields `json:"profile" validate:"omitempty"`
}

type AdminUpdateUserResponse struct {
	Success bool        `json:"success"`
	User    UserProfile `json:"user"`
}

type FunctionErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type UserListResponse struct {
	Users  []UserProfile `json:"users"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type StatsResponse struct {
	Users        int64 `json:"users"`
	PremiumUsers int64 `json:"premium_users"`
	Properties   int64 `json:"properties"`
	Published    int64 `json:"published"`
	Favorites    int64 `json:"favorites"`
}

func NewUserProfiles(users []models.User) []UserProfile {
	out := make([]UserProfile, len(users))
	for i := range users {
		out[i] = NewUserProfile(&users[i])
	}
	return out
}
