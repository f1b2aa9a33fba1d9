package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=120"`
	RedirectTo  string `json:"redirect_to" validate:"omitempty,url"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type EmailRequest struct {
	Email      string `json:"email" validate:"required,email"`
	RedirectTo string `json:"redirect_to" validate:"omitempty,url"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    int64       `json:"expires_at"`
	User         UserProfile `json:"user"`
}

type SignUpResponse struct {
	Message string      `json:"message"`
	User    UserProfile `json:"user"`
}

type LogoutResponse struct {
	Message string `json:"message"`
	Reload  bool   `json:"reload"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID                    uuid.UUID  `json:"id"`
	Email                 string     `json:"email"`
	DisplayName           string     `json:"display_name"`
	SubscriptionTier      string     `json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	IsActive              bool       `json:"is_active"`
	IsAdmin               bool       `json:"is_admin"`
	AvatarURL             string     `json:"avatar_url"`
	EmailConfirmed        bool       `json:"email_confirmed"`
}

func NewUserProfile(u *models.User) UserProfile {
	return UserProfile{
		ID:                    u.ID,
		Email:                 u.Email,
		DisplayName:           u.DisplayName,
		SubscriptionTier:      u.SubscriptionTier,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
		IsActive:              u.IsActive,
		IsAdmin:               u.IsAdmin(),
		AvatarURL:             u.AvatarURL,
		EmailConfirmed:        u.IsConfirmed(),
	}
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=120"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url,max=512"`
}
