package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUnknownFallback(t *testing.T) {
	_, err := Load("xx")
	assert.Error(t, err)
}

func TestLocalesFallbackFirst(t *testing.T) {
	c, err := Load("es")
	require.NoError(t, err)
	assert.Equal(t, []string{"es", "en"}, c.Locales())
}

func TestMatch(t *testing.T) {
	c := Default()

	assert.Equal(t, "es", c.Match("es", "en-US"))
	assert.Equal(t, "en", c.Match("de", ""))
	assert.Equal(t, "es", c.Match("", "es-MX,es;q=0.9,en;q=0.5"))
	assert.Equal(t, "en", c.Match("", "ja-JP"))
	assert.Equal(t, "en", c.Match("", ";;;garbage"))
}

func TestTranslate(t *testing.T) {
	c := Default()

	assert.Equal(t, "Contraseña actualizada", c.T("es", "auth.password_updated"))
	assert.Equal(t, "Last updated: 2026-01-01", c.T("fr", "legal.updated", "2026-01-01"))
	assert.Equal(t, "missing.key", c.T("en", "missing.key"))
}

func TestLocalizerUnknownLocale(t *testing.T) {
	l := Default().For("pt")
	assert.Equal(t, "en", l.Locale)
	assert.Equal(t, "Property not found", l.T("property.not_found"))
}
