package services

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
)

// The services depend on these narrow views of the repository and cache
// packages so they can be exercised against in-memory doubles.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	DowngradeExpired(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountPremium(ctx context.Context, now time.Time) (int64, error)
}

type TokenStore interface {
	CreateRefresh(ctx context.Context, token *models.RefreshToken) error
	FindActiveRefresh(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeRefresh(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	CreateAction(ctx context.Context, token *models.ActionToken) error
	ConsumeAction(ctx context.Context, tokenHash, kind string, now time.Time) (*models.ActionToken, error)
	InvalidateActions(ctx context.Context, userID uuid.UUID, kind string, now time.Time) error
}

type PropertyStore interface {
	List(ctx context.Context, f dto.PropertyFilter) ([]models.Property, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	Create(ctx context.Context, p *models.Property) error
	Save(ctx context.Context, p *models.Property) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, publishedOnly bool) (int64, error)
}

type FavoriteStore interface {
	ListIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListProperties(ctx context.Context, userID uuid.UUID) ([]models.Property, error)
	Exists(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	Add(ctx context.Context, userID, propertyID uuid.UUID) error
	Remove(ctx context.Context, userID, propertyID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	RemoveProperty(ctx context.Context, propertyID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type SettingStore interface {
	All(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, key, value, typ string) (*models.Setting, error)
	Delete(ctx context.Context, key string) error
	CreateMissing(ctx context.Context, defaults []models.Setting) error
}

type FavoriteCache interface {
	FavoriteIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, bool, error)
	SetFavoriteIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
	InvalidateFavorites(ctx context.Context, userID uuid.UUID) error
	InvalidateAllFavorites(ctx context.Context) error
}

// SessionCache tracks revoked access tokens and per-user cached state.
type SessionCache interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	RevokeUserTokens(ctx context.Context, userID uuid.UUID, at time.Time, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error)
	PurgeUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// EventRecorder receives business events for metrics.
type EventRecorder interface {
	AuthEvent(event string, err error)
	FavoriteWrite(action string, err error)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, error)     {}
func (nopRecorder) FavoriteWrite(string, error) {}

func recorderOrNop(r EventRecorder) EventRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
