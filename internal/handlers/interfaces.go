package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
)

// Handlers depend on these views of the services package.

type AuthAPI interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest, locale string) (*dto.SignUpResponse, error)
	Verify(ctx context.Context, rawToken, redirectTo string) (string, error)
	ResendConfirmation(ctx context.Context, email, redirectTo, locale string) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, rawToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, jti string, accessExpiry time.Time, refreshToken string) error
	Session(ctx context.Context, userID uuid.UUID) (*dto.UserProfile, error)
	RequestPasswordReset(ctx context.Context, email, redirectTo, locale string) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error
}

type ProfileAPI interface {
	Get(ctx context.Context, userID uuid.UUID) (*dto.UserProfile, error)
	Update(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfile, error)
}

type PropertyAPI interface {
	List(ctx context.Context, f dto.PropertyFilter) (*dto.PropertyListResponse, error)
	Get(ctx context.Context, id uuid.UUID, includeUnpublished bool) (*models.Property, error)
	Create(ctx context.Context, req *dto.PropertyRequest) (*models.Property, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.PropertyRequest) (*models.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FavoriteAPI interface {
	IDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Properties(ctx context.Context, userID uuid.UUID) ([]models.Property, error)
	Add(ctx context.Context, userID, propertyID uuid.UUID) error
	Remove(ctx context.Context, userID, propertyID uuid.UUID) error
	Toggle(ctx context.Context, userID, propertyID uuid.UUID) (bool, []uuid.UUID, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type AdminAPI interface {
	UpdateUser(ctx context.Context, req *dto.AdminUpdateUserRequest) (*dto.UserProfile, error)
	ListUsers(ctx context.Context, limit, offset int) (*dto.UserListResponse, error)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}

type SettingAPI interface {
	Public(ctx context.Context) (map[string]interface{}, error)
	Set(ctx context.Context, key, value, typ string) (*models.Setting, error)
	Delete(ctx context.Context, key string) error
}

type SubscriptionAPI interface {
	HandleWebhookEvent(ctx context.Context, event *dto.BillingEvent) error
}
