package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsSeedAndDecode(t *testing.T) {
	store := newFakeSettings()
	svc := NewSettingService(store)
	ctx := context.Background()

	_, err := svc.Set(ctx, "default_language", "es", "")
	require.NoError(t, err)
	require.NoError(t, svc.SeedDefaults(ctx, "en", []string{"en", "es"}))

	public, err := svc.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "es", public["default_language"])
	assert.Equal(t, false, public["maintenance_mode"])
	assert.Equal(t, 20, public["listings_per_page"])
	assert.Equal(t, json.RawMessage(`["en","es"]`), public["supported_languages"])

	_, err = svc.Set(ctx, "listings_per_page", "many", "int")
	require.NoError(t, err)
	public, _ = svc.Public(ctx)
	assert.Equal(t, "many", public["listings_per_page"])

	require.NoError(t, svc.Delete(ctx, "contact_email"))
	assert.ErrorIs(t, svc.Delete(ctx, "contact_email"), ErrSettingNotFound)
}
