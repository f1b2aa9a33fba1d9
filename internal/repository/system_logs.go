package repository

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"gorm.io/gorm"
)

type SystemLogRepository struct {
	db *gorm.DB
}

func NewSystemLogRepository(db *gorm.DB) *SystemLogRepository {
	return &SystemLogRepository{db: db}
}

func (r *SystemLogRepository) WriteLogs(entries []models.SystemLog) error {
	return r.db.CreateInBatches(entries, 50).Error
}

func (r *SystemLogRepository) PurgeBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
