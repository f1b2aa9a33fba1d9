package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// FunctionHandler serves the privileged server functions called by the web
// client with the service credential.
type FunctionHandler struct {
	adminService AdminAPI
	adminToken   string
}

func NewFunctionHandler(adminService AdminAPI, adminToken string) *FunctionHandler {
	return &FunctionHandler{adminService: adminService, adminToken: adminToken}
}

// AdminUpdateUser updates any user's email, password or profile fields.
func (h *FunctionHandler) AdminUpdateUser(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodOptions:
		return c.SendStatus(fiber.StatusNoContent)
	case fiber.MethodPost:
	default:
		return h.fail(c, fiber.StatusMethodNotAllowed, "common.method_not_allowed")
	}

	if h.adminToken == "" {
		slog.Error("admin-update-user called but ADMIN_TOKEN is not configured")
		return h.fail(c, fiber.StatusInternalServerError, "admin.config_missing")
	}
	if !h.authorized(c) {
		return h.fail(c, fiber.StatusUnauthorized, "common.unauthorized")
	}

	var req dto.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "common.invalid_body")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return h.fail(c, fiber.StatusBadRequest, "admin.user_id_required")
	}
	if err := dto.Validate(req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "common.validation_failed", err.Error())
	}

	profile, err := h.adminService.UpdateUser(c.UserContext(), &req)
	if err != nil {
		status, key := adminUpdateStatus(err)
		if status == fiber.StatusInternalServerError {
			slog.Error("admin-update-user failed", "user_id", req.UserID, "error", err)
		}
		return h.fail(c, status, key)
	}

	return c.JSON(dto.AdminUpdateUserResponse{Success: true, User: *profile})
}

// authorized accepts the service credential as a bearer token or X-Admin-Token.
func (h *FunctionHandler) authorized(c *fiber.Ctx) bool {
	presented := c.Get("X-Admin-Token")
	if presented == "" {
		auth := c.Get(fiber.HeaderAuthorization)
		if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			presented = strings.TrimSpace(auth[7:])
		}
	}
	return presented != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(h.adminToken)) == 1
}

func (h *FunctionHandler) fail(c *fiber.Ctx, status int, key string, args ...interface{}) error {
	return c.Status(status).JSON(dto.FunctionErrorResponse{
		Success: false,
		Error:   dto.Localizer(c).T(key, args...),
	})
}

func adminUpdateStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidUserID):
		return fiber.StatusBadRequest, "common.invalid_id"
	case errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusBadRequest, "admin.email_taken"
	case errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound, "admin.user_not_found"
	default:
		return fiber.StatusInternalServerError, "common.internal"
	}
}
