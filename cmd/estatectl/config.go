package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/session"
)

type cliConfig struct {
	APIURL       string
	Locale       string
	StateDir     string
	ConfirmDelay time.Duration
	ReloadDelay  time.Duration
	AuthMarkers  []string
	NameMarkers  []string
}

type fileConfig struct {
	APIURL       string   `toml:"api_url"`
	Locale       string   `toml:"locale"`
	StateDir     string   `toml:"state_dir"`
	ConfirmDelay string   `toml:"confirm_delay"`
	ReloadDelay  string   `toml:"reload_delay"`
	AuthMarkers  []string `toml:"auth_markers"`
	NameMarkers  []string `toml:"name_markers"`
}

func defaultConfig() cliConfig {
	stateDir := ".estatectl"
	if dir, err := os.UserConfigDir(); err == nil {
		stateDir = filepath.Join(dir, "estatectl")
	}
	return cliConfig{
		APIURL:       "http://localhost:8080",
		StateDir:     stateDir,
		ConfirmDelay: 2 * time.Second,
		ReloadDelay:  100 * time.Millisecond,
		AuthMarkers:  session.DefaultAuthMarkers,
		NameMarkers:  session.DefaultNameMarkers,
	}
}

// loadConfig applies the TOML file at path over the defaults, then the
// ESTATE_API_URL and ESTATE_LOCALE environment variables. A missing file is
// not an error.
func loadConfig(path string) (cliConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cliConfig{}, fmt.Errorf("load estatectl config: %w", err)
	default:
		if meta.IsDefined("api_url") {
			cfg.APIURL = strings.TrimSpace(raw.APIURL)
		}
		if meta.IsDefined("locale") {
			cfg.Locale = strings.TrimSpace(raw.Locale)
		}
		if meta.IsDefined("state_dir") {
			cfg.StateDir = strings.TrimSpace(raw.StateDir)
		}
		if meta.IsDefined("confirm_delay") {
			d, err := time.ParseDuration(strings.TrimSpace(raw.ConfirmDelay))
			if err != nil {
				return cliConfig{}, fmt.Errorf("parse confirm_delay: %w", err)
			}
			cfg.ConfirmDelay = d
		}
		if meta.IsDefined("reload_delay") {
			d, err := time.ParseDuration(strings.TrimSpace(raw.ReloadDelay))
			if err != nil {
				return cliConfig{}, fmt.Errorf("parse reload_delay: %w", err)
			}
			cfg.ReloadDelay = d
		}
		if meta.IsDefined("auth_markers") {
			cfg.AuthMarkers = normalizeMarkers(raw.AuthMarkers)
		}
		if meta.IsDefined("name_markers") {
			cfg.NameMarkers = normalizeMarkers(raw.NameMarkers)
		}
	}

	if v := os.Getenv("ESTATE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("ESTATE_LOCALE"); v != "" {
		cfg.Locale = v
	}
	return cfg, nil
}

func normalizeMarkers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (c cliConfig) authFile() string   { return filepath.Join(c.StateDir, "auth.json") }
func (c cliConfig) localDir() string   { return filepath.Join(c.StateDir, "local") }
func (c cliConfig) cacheDir() string   { return filepath.Join(c.StateDir, "cache") }
func (c cliConfig) cookieFile() string { return filepath.Join(c.StateDir, "cookies.json") }
