package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OperationSale = "sale"
	OperationRent = "rent"
)

var PropertyKinds = []string{"house", "apartment", "land", "commercial"}

type Property struct {
	ID          uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string                      `gorm:"size:200;not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Operation   string                      `gorm:"size:10;not null;index" json:"operation"`
	Kind        string                      `gorm:"size:20;not null;index" json:"kind"`
	Price       float64                     `gorm:"not null;index" json:"price"`
	Currency    string                      `gorm:"size:3;default:'USD'" json:"currency"`
	City        string                      `gorm:"size:120;index" json:"city"`
	Address     string                      `gorm:"size:255" json:"address"`
	Bedrooms    int                         `gorm:"default:0" json:"bedrooms"`
	Bathrooms   int                         `gorm:"default:0" json:"bathrooms"`
	AreaM2      float64                     `gorm:"column:area_m2" json:"area_m2"`
	Images      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images"`
	Features    datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"features"`
	Published   bool                        `gorm:"default:true;index" json:"published"`
	Featured    bool                        `gorm:"default:false" json:"featured"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	DeletedAt   gorm.DeletedAt              `gorm:"index" json:"-"`
}
