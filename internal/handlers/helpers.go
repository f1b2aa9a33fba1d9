package handlers

import (
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// parseBody decodes and validates a JSON body. When ok is false the 400
// response has already been written and err is what the handler returns.
func parseBody(c *fiber.Ctx, out interface{}) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, dto.Fail(c, fiber.StatusBadRequest, "common.invalid_body")
	}
	if err := dto.Validate(out); err != nil {
		return false, dto.Fail(c, fiber.StatusBadRequest, "common.validation_failed", err.Error())
	}
	return true, nil
}

// currentUser returns the authenticated user id or writes a 401.
func currentUser(c *fiber.Ctx) (uuid.UUID, bool, error) {
	userID, err := middleware.UserID(c)
	if err != nil {
		return uuid.Nil, false, dto.Fail(c, fiber.StatusUnauthorized, "common.unauthorized")
	}
	return userID, true, nil
}

// pathID parses the :id route param or writes a 400.
func pathID(c *fiber.Ctx) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false, dto.Fail(c, fiber.StatusBadRequest, "common.invalid_id")
	}
	return id, true, nil
}

func locale(c *fiber.Ctx) string {
	return dto.Localizer(c).Locale
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
