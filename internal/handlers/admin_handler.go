package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	adminService AdminAPI
}

func NewAdminHandler(adminService AdminAPI) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	resp, err := h.adminService.ListUsers(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		slog.Error("list users failed", "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
	return c.JSON(resp)
}

// UpdateUser is the admin panel's route onto the same update used by the
// admin-update-user function. The path id wins over any body userId.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok, err := pathID(c)
	if !ok {
		return err
	}

	var req dto.AdminUpdateUserRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	req.UserID = id.String()

	profile, err := h.adminService.UpdateUser(c.UserContext(), &req)
	if err != nil {
		status, key := adminUpdateStatus(err)
		if status == fiber.StatusInternalServerError {
			slog.Error("admin user update failed", "user_id", req.UserID, "error", err)
		}
		return dto.Fail(c, status, key)
	}
	return c.JSON(profile)
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.adminService.Stats(c.UserContext())
	if err != nil {
		slog.Error("stats failed", "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
	return c.JSON(stats)
}
