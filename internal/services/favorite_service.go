package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/repository"
	"github.com/google/uuid"
)

// FavoriteService owns the per-user favorite set. Reads go through the cache;
// every write invalidates it so the next read reflects backend state.
type FavoriteService struct {
	favorites  FavoriteStore
	properties PropertyStore
	cache      FavoriteCache
	events     EventRecorder
}

func NewFavoriteService(favorites FavoriteStore, properties PropertyStore, cache FavoriteCache, events EventRecorder) *FavoriteService {
	return &FavoriteService{
		favorites:  favorites,
		properties: properties,
		cache:      cache,
		events:     recorderOrNop(events),
	}
}

func (s *FavoriteService) IDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, found, err := s.cache.FavoriteIDs(ctx, userID)
	if err != nil {
		slog.Warn("favorites cache read failed", "user_id", userID.String(), "error", err)
	}
	if found {
		return ids, nil
	}

	ids, err = s.favorites.ListIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	if err := s.cache.SetFavoriteIDs(ctx, userID, ids); err != nil {
		slog.Warn("favorites cache write failed", "user_id", userID.String(), "error", err)
	}
	return ids, nil
}

func (s *FavoriteService) Properties(ctx context.Context, userID uuid.UUID) ([]models.Property, error) {
	properties, err := s.favorites.ListProperties(ctx, userID)
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []models.Property{}
	}
	return properties, nil
}

// Add favorites a published property. Adding twice is a no-op.
func (s *FavoriteService) Add(ctx context.Context, userID, propertyID uuid.UUID) error {
	err := s.add(ctx, userID, propertyID)
	s.events.FavoriteWrite("add", err)
	return err
}

func (s *FavoriteService) add(ctx context.Context, userID, propertyID uuid.UUID) error {
	p, err := s.properties.FindByID(ctx, propertyID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPropertyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load property: %w", err)
	}
	if !p.Published {
		return ErrPropertyNotFound
	}
	if err := s.favorites.Add(ctx, userID, propertyID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	err := s.favorites.Remove(ctx, userID, propertyID)
	s.events.FavoriteWrite("remove", err)
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Toggle flips membership of propertyID and returns the new state together
// with the resulting set.
func (s *FavoriteService) Toggle(ctx context.Context, userID, propertyID uuid.UUID) (bool, []uuid.UUID, error) {
	exists, err := s.favorites.Exists(ctx, userID, propertyID)
	if err != nil {
		return false, nil, err
	}
	if exists {
		err = s.Remove(ctx, userID, propertyID)
	} else {
		err = s.Add(ctx, userID, propertyID)
	}
	if err != nil {
		return exists, nil, err
	}
	ids, err := s.IDs(ctx, userID)
	if err != nil {
		return !exists, nil, err
	}
	return !exists, ids, nil
}

func (s *FavoriteService) Clear(ctx context.Context, userID uuid.UUID) error {
	err := s.favorites.Clear(ctx, userID)
	s.events.FavoriteWrite("clear", err)
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *FavoriteService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.InvalidateFavorites(ctx, userID); err != nil {
		slog.Warn("favorites cache invalidation failed", "user_id", userID.String(), "error", err)
	}
}
