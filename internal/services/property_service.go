package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PropertyService struct {
	properties PropertyStore
	favorites  FavoriteStore
	cache      FavoriteCache
}

func NewPropertyService(properties PropertyStore, favorites FavoriteStore, cache FavoriteCache) *PropertyService {
	return &PropertyService{properties: properties, favorites: favorites, cache: cache}
}

func (s *PropertyService) List(ctx context.Context, f dto.PropertyFilter) (*dto.PropertyListResponse, error) {
	f.Normalize()
	properties, total, err := s.properties.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []models.Property{}
	}
	return &dto.PropertyListResponse{
		Properties: properties,
		Total:      total,
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}

// Get returns a property. Unpublished listings are only visible when includeUnpublished is set.
func (s *PropertyService) Get(ctx context.Context, id uuid.UUID, includeUnpublished bool) (*models.Property, error) {
	p, err := s.properties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	if !p.Published && !includeUnpublished {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

func (s *PropertyService) Create(ctx context.Context, req *dto.PropertyRequest) (*models.Property, error) {
	p := &models.Property{ID: uuid.New(), Published: true}
	applyPropertyRequest(p, req)
	if err := s.properties.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, req *dto.PropertyRequest) (*models.Property, error) {
	p, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	wasPublished := p.Published
	applyPropertyRequest(p, req)
	if err := s.properties.Save(ctx, p); err != nil {
		return nil, err
	}
	if wasPublished && !p.Published {
		s.invalidateFavorites(ctx)
	}
	return p, nil
}

// Delete removes a property and every favorite pointing at it.
func (s *PropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.properties.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPropertyNotFound
		}
		return err
	}
	if err := s.favorites.RemoveProperty(ctx, id); err != nil {
		return err
	}
	s.invalidateFavorites(ctx)
	return nil
}

func (s *PropertyService) invalidateFavorites(ctx context.Context) {
	if err := s.cache.InvalidateAllFavorites(ctx); err != nil {
		slog.Warn("favorites cache invalidation failed", "error", err)
	}
}

func applyPropertyRequest(p *models.Property, req *dto.PropertyRequest) {
	p.Title = strings.TrimSpace(req.Title)
	p.Description = req.Description
	p.Operation = req.Operation
	p.Kind = req.Kind
	p.Price = req.Price
	p.Currency = strings.ToUpper(req.Currency)
	if p.Currency == "" {
		p.Currency = "USD"
	}
	p.City = strings.TrimSpace(req.City)
	p.Address = strings.TrimSpace(req.Address)
	p.Bedrooms = req.Bedrooms
	p.Bathrooms = req.Bathrooms
	p.AreaM2 = req.AreaM2
	p.Images = datatypes.JSONSlice[string](nonNil(req.Images))
	p.Features = datatypes.JSONSlice[string](nonNil(req.Features))
	if req.Published != nil {
		p.Published = *req.Published
	}
	p.Featured = req.Featured
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
