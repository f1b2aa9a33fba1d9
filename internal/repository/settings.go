package repository

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) All(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error
	return settings, err
}

func (r *SettingRepository) Upsert(ctx context.Context, key, value, typ string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.Setting{ID: uuid.New(), Key: key, Value: value, Type: typ}
		if err := r.db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, translate(err)
		}
		return &setting, nil
	}
	if err != nil {
		return nil, err
	}

	setting.Value = value
	setting.Type = typ
	if err := r.db.WithContext(ctx).Save(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	result := r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateMissing inserts defaults whose key does not exist yet.
func (r *SettingRepository) CreateMissing(ctx context.Context, defaults []models.Setting) error {
	for i := range defaults {
		var existing models.Setting
		err := r.db.WithContext(ctx).Where("key = ?", defaults[i].Key).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := r.db.WithContext(ctx).Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
