package middleware

import (
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/i18n"
	"github.com/gofiber/fiber/v2"
)

// Locale picks the response language from, in order: the lang query param,
// the X-Locale header, then Accept-Language. The localizer is stored in
// Locals for handlers and dto.Fail.
func Locale(catalog *i18n.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		explicit := c.Query("lang")
		if explicit == "" {
			explicit = c.Get("X-Locale")
		}
		locale := catalog.Match(explicit, c.Get(fiber.HeaderAcceptLanguage))
		c.Locals(i18n.LocalsKey, catalog.For(locale))
		c.Set(fiber.HeaderContentLanguage, locale)
		return c.Next()
	}
}
