package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profileService ProfileAPI
}

func NewProfileHandler(profileService ProfileAPI) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	profile, err := h.profileService.Get(c.UserContext(), userID)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var req dto.UpdateProfileRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	profile, err := h.profileService.Update(c.UserContext(), userID, &req)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(profile)
}

func profileError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrUserNotFound) {
		return dto.Fail(c, fiber.StatusNotFound, "admin.user_not_found")
	}
	slog.Error("profile request failed", "error", err)
	return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
}
