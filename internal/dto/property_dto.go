package dto

import "github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"

type PropertyFilter struct {
	Operation   string  `query:"operation" validate:"omitempty,oneof=sale rent"`
	Kind        string  `query:"kind" validate:"omitempty,oneof=house apartment land commercial"`
	City        string  `query:"city" validate:"max=120"`
	MinPrice    float64 `query:"min_price" validate:"gte=0"`
	MaxPrice    float64 `query:"max_price" validate:"gte=0"`
	MinBedrooms int     `query:"min_bedrooms" validate:"gte=0"`
	Featured    bool    `query:"featured"`
	Query       string  `query:"q" validate:"max=100"`
	Limit       int     `query:"limit"`
	Offset      int     `query:"offset"`
	// Set by handlers, never bound from the query string.
	IncludeUnpublished bool `query:"-"`
}

// Normalize clamps paging to sane bounds.
func (f *PropertyFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

type PropertyRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=10000"`
	Operation   string   `json:"operation" validate:"required,oneof=sale rent"`
	Kind        string   `json:"kind" validate:"required,oneof=house apartment land commercial"`
	Price       float64  `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency" validate:"omitempty,len=3"`
	City        string   `json:"city" validate:"required,max=120"`
	Address     string   `json:"address" validate:"max=255"`
	Bedrooms    int      `json:"bedrooms" validate:"gte=0,lte=100"`
	Bathrooms   int      `json:"bathrooms" validate:"gte=0,lte=100"`
	AreaM2      float64  `json:"area_m2" validate:"gte=0"`
	Images      []string `json:"images" validate:"max=30,dive,url"`
	Features    []string `json:"features" validate:"max=50,dive,max=80"`
	Published   *bool    `json:"published"`
	Featured    bool     `json:"featured"`
}

type PropertyListResponse struct {
	Properties []models.Property `json:"properties"`
	Total      int64             `json:"total"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

type FavoriteIDsResponse struct {
	PropertyIDs []string `json:"property_ids"`
}

type FavoriteToggleResponse struct {
	PropertyID  string   `json:"property_id"`
	Favorited   bool     `json:"favorited"`
	PropertyIDs []string `json:"property_ids"`
}
