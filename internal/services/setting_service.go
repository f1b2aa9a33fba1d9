package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/repository"
)

type SettingService struct {
	settings SettingStore
}

func NewSettingService(settings SettingStore) *SettingService {
	return &SettingService{settings: settings}
}

// Public returns every setting decoded into its declared type.
func (s *SettingService) Public(ctx context.Context) (map[string]interface{}, error) {
	settings, err := s.settings.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(settings))
	for _, setting := range settings {
		out[setting.Key] = decodeSetting(setting)
	}
	return out, nil
}

func (s *SettingService) Set(ctx context.Context, key, value, typ string) (*models.Setting, error) {
	if typ == "" {
		typ = "string"
	}
	return s.settings.Upsert(ctx, key, value, typ)
}

func (s *SettingService) Delete(ctx context.Context, key string) error {
	if err := s.settings.Delete(ctx, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSettingNotFound
		}
		return err
	}
	return nil
}

// SeedDefaults creates the baseline site settings without touching existing values.
func (s *SettingService) SeedDefaults(ctx context.Context, defaultLocale string, locales []string) error {
	langs, _ := json.Marshal(locales)
	return s.settings.CreateMissing(ctx, []models.Setting{
		{Key: "default_language", Value: defaultLocale, Type: "string"},
		{Key: "supported_languages", Value: string(langs), Type: "json"},
		{Key: "maintenance_mode", Value: "false", Type: "bool"},
		{Key: "contact_email", Value: "", Type: "string"},
		{Key: "listings_per_page", Value: "20", Type: "int"},
	})
}

func decodeSetting(setting models.Setting) interface{} {
	switch setting.Type {
	case "bool":
		if b, err := strconv.ParseBool(strings.TrimSpace(setting.Value)); err == nil {
			return b
		}
	case "int":
		if n, err := strconv.Atoi(strings.TrimSpace(setting.Value)); err == nil {
			return n
		}
	case "json":
		if json.Valid([]byte(setting.Value)) {
			return json.RawMessage(setting.Value)
		}
	}
	return setting.Value
}
