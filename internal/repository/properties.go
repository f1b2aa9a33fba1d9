package repository

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) List(ctx context.Context, f dto.PropertyFilter) ([]models.Property, int64, error) {
	var properties []models.Property
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Property{}).Scopes(filterScope(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("featured DESC, created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&properties).Error
	if err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}

func filterScope(f dto.PropertyFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !f.IncludeUnpublished {
			db = db.Where("published = ?", true)
		}
		if f.Operation != "" {
			db = db.Where("operation = ?", f.Operation)
		}
		if f.Kind != "" {
			db = db.Where("kind = ?", f.Kind)
		}
		if city := strings.TrimSpace(f.City); city != "" {
			db = db.Where("city ILIKE ?", city)
		}
		if f.MinPrice > 0 {
			db = db.Where("price >= ?", f.MinPrice)
		}
		if f.MaxPrice > 0 {
			db = db.Where("price <= ?", f.MaxPrice)
		}
		if f.MinBedrooms > 0 {
			db = db.Where("bedrooms >= ?", f.MinBedrooms)
		}
		if f.Featured {
			db = db.Where("featured = ?", true)
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			pattern := "%" + q + "%"
			db = db.Where("(title ILIKE ? OR description ILIKE ? OR address ILIKE ?)", pattern, pattern, pattern)
		}
		return db
	}
}

func (r *PropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PropertyRepository) Create(ctx context.Context, p *models.Property) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PropertyRepository) Save(ctx context.Context, p *models.Property) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Property{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PropertyRepository) Count(ctx context.Context, publishedOnly bool) (int64, error) {
	var n int64
	query := r.db.WithContext(ctx).Model(&models.Property{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	err := query.Count(&n).Error
	return n, err
}
