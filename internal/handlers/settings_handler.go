package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	settingService SettingAPI
}

func NewSettingsHandler(settingService SettingAPI) *SettingsHandler {
	return &SettingsHandler{settingService: settingService}
}

// Public returns all site settings decoded to their declared types.
func (h *SettingsHandler) Public(c *fiber.Ctx) error {
	settings, err := h.settingService.Public(c.UserContext())
	if err != nil {
		slog.Error("settings fetch failed", "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// Set creates or replaces a setting (admin only).
func (h *SettingsHandler) Set(c *fiber.Ctx) error {
	key := c.Params("key")

	var req dto.SettingRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if req.Value == "" && req.Type != "" && req.Type != "string" {
		return dto.Fail(c, fiber.StatusBadRequest, "settings.value_required")
	}

	setting, err := h.settingService.Set(c.UserContext(), key, req.Value, req.Type)
	if err != nil {
		slog.Error("setting update failed", "key", key, "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
	return c.JSON(setting)
}

// Delete removes a setting (admin only).
func (h *SettingsHandler) Delete(c *fiber.Ctx) error {
	key := c.Params("key")
	if err := h.settingService.Delete(c.UserContext(), key); err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			return dto.Fail(c, fiber.StatusNotFound, "settings.not_found")
		}
		slog.Error("setting delete failed", "key", key, "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
	return c.JSON(dto.MessageResponse{Message: dto.Localizer(c).T("settings.deleted")})
}
