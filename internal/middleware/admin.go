package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RoleChecker resolves the current role of a user from storage.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AdminRequired admits a request when the caller is either listed in the
// config (ADMIN_EMAILS / ADMIN_USER_IDS) or holds the admin role in storage.
// Must run after JWTProtected.
func AdminRequired(cfg *config.Config, roles RoleChecker) fiber.Handler {
	adminEmails := config.ParseCSV(cfg.AdminEmails)
	adminUserIDs := config.ParseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return dto.Fail(c, fiber.StatusUnauthorized, "common.unauthorized")
		}

		email, _ := claims["email"].(string)
		sub, _ := claims["sub"].(string)

		if containsFold(adminEmails, email) || containsFold(adminUserIDs, sub) {
			return c.Next()
		}

		if userID, err := uuid.Parse(sub); err == nil {
			isAdmin, err := roles.IsAdmin(c.UserContext(), userID)
			if err != nil {
				slog.Error("admin role lookup failed", "user_id", sub, "error", err)
				return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
			}
			if isAdmin {
				return c.Next()
			}
		}

		return dto.Fail(c, fiber.StatusForbidden, "admin.required")
	}
}

func containsFold(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}
