package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) CreateRefresh(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *TokenRepository) FindActiveRefresh(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error
	if err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}

// RevokeRefresh revokes a live refresh token. It returns ErrNotFound when the
// token is unknown or already revoked, so only one caller can rotate it.
func (r *TokenRepository) RevokeRefresh(ctx context.Context, tokenHash string) error {
	result := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = false", tokenHash).
		Update("revoked", true)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = false", userID).
		Update("revoked", true).Error
}

func (r *TokenRepository) CreateAction(ctx context.Context, token *models.ActionToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

// ConsumeAction marks an unused, unexpired token of the given kind as used and returns it.
// A token can be consumed exactly once.
func (r *TokenRepository) ConsumeAction(ctx context.Context, tokenHash, kind string, now time.Time) (*models.ActionToken, error) {
	var token models.ActionToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token_hash = ? AND kind = ? AND used_at IS NULL AND expires_at > ?", tokenHash, kind, now).
			First(&token).Error; err != nil {
			return err
		}
		result := tx.Model(&models.ActionToken{}).
			Where("id = ? AND used_at IS NULL", token.ID).
			Update("used_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		token.UsedAt = &now
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

// InvalidateActions burns every outstanding token of kind for the user.
func (r *TokenRepository) InvalidateActions(ctx context.Context, userID uuid.UUID, kind string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ActionToken{}).
		Where("user_id = ? AND kind = ? AND used_at IS NULL", userID, kind).
		Update("used_at", now).Error
}
