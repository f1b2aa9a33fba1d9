package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) ListIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("property_id", &ids).Error
	return ids, err
}

func (r *FavoriteRepository) ListProperties(ctx context.Context, userID uuid.UUID) ([]models.Property, error) {
	var properties []models.Property
	sub := r.db.Model(&models.Favorite{}).Select("property_id").Where("user_id = ?", userID)
	err := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Order("created_at DESC").
		Find(&properties).Error
	return properties, err
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Count(&n).Error
	return n > 0, err
}

// Add is idempotent: an existing pair is left untouched.
func (r *FavoriteRepository) Add(ctx context.Context, userID, propertyID uuid.UUID) error {
	fav := models.Favorite{ID: uuid.New(), UserID: userID, PropertyID: propertyID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fav).Error
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&models.Favorite{}).Error
}

func (r *FavoriteRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Favorite{}).Error
}

func (r *FavoriteRepository) RemoveProperty(ctx context.Context, propertyID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("property_id = ?", propertyID).Delete(&models.Favorite{}).Error
}

func (r *FavoriteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).Count(&n).Error
	return n, err
}
