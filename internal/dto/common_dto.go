package dto

import (
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/i18n"
	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Cache     string `json:"cache"`
}

type SettingRequest struct {
	Value string `json:"value"`
	Type  string `json:"type" validate:"omitempty,oneof=string bool int json"`
}

// Localizer returns the request localizer set by the locale middleware.
func Localizer(c *fiber.Ctx) *i18n.Localizer {
	if l, ok := c.Locals(i18n.LocalsKey).(*i18n.Localizer); ok {
		return l
	}
	return i18n.Default().For("en")
}

// Fail writes the standard error body with a localized message.
func Fail(c *fiber.Ctx, status int, key string, args ...any) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: true, Message: Localizer(c).T(key, args...),
	})
}
