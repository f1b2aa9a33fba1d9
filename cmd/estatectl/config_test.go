package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ESTATE_API_URL", "")
	t.Setenv("ESTATE_LOCALE", "")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, 2*time.Second, cfg.ConfirmDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.ReloadDelay)
	assert.Contains(t, cfg.AuthMarkers, "sb-")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ESTATE_API_URL", "")
	t.Setenv("ESTATE_LOCALE", "es")

	path := filepath.Join(t.TempDir(), "estatectl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url = " https://api.estate.example.com "
state_dir = "/tmp/estate-state"
confirm_delay = "0s"
auth_markers = ["auth", " ", "jwt"]
`), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.estate.example.com", cfg.APIURL)
	assert.Equal(t, "es", cfg.Locale)
	assert.Equal(t, time.Duration(0), cfg.ConfirmDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.ReloadDelay)
	assert.Equal(t, []string{"auth", "jwt"}, cfg.AuthMarkers)
	assert.Equal(t, filepath.Join("/tmp/estate-state", "auth.json"), cfg.authFile())
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estatectl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`reload_delay = "soon"`), 0o600))

	_, err := loadConfig(path)
	assert.Error(t, err)
}
