package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// clearSiteData tells the browser to drop everything it holds for the origin.
const clearSiteData = `"cache", "cookies", "storage"`

type AuthHandler struct {
	authService   AuthAPI
	cookieMarkers []string
}

func NewAuthHandler(authService AuthAPI, cookieMarkers []string) *AuthHandler {
	return &AuthHandler{authService: authService, cookieMarkers: cookieMarkers}
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.authService.SignUp(c.UserContext(), &req, locale(c))
	if err != nil {
		return h.authError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Verify is the target of the emailed confirmation link.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" || c.Query("type", models.ActionSignup) != models.ActionSignup {
		return dto.Fail(c, fiber.StatusBadRequest, "auth.invalid_link")
	}

	target, err := h.authService.Verify(c.UserContext(), token, c.Query("redirect_to"))
	if err != nil {
		return h.authError(c, err)
	}
	return c.Redirect(target, fiber.StatusFound)
}

func (h *AuthHandler) Resend(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.authService.ResendConfirmation(c.UserContext(), req.Email, req.RedirectTo, locale(c)); err != nil {
		slog.Error("resend confirmation failed", "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
	return c.JSON(dto.MessageResponse{Message: dto.Localizer(c).T("auth.confirmation_sent")})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return h.authError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return h.authError(c, err)
	}
	return c.JSON(resp)
}

// Logout ends the session server-side and instructs the browser to wipe
// auth cookies and site storage. The body is optional.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return dto.Fail(c, fiber.StatusBadRequest, "common.invalid_body")
		}
	}

	err = h.authService.Logout(c.UserContext(), userID, middleware.TokenID(c), middleware.TokenExpiry(c), req.RefreshToken)
	if err != nil {
		slog.Error("logout failed", "user_id", userID.String(), "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}

	h.expireAuthCookies(c)
	c.Set("Clear-Site-Data", clearSiteData)
	return c.JSON(dto.LogoutResponse{
		Message: dto.Localizer(c).T("auth.logged_out"),
		Reload:  true,
	})
}

func (h *AuthHandler) Session(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	profile, err := h.authService.Session(c.UserContext(), userID)
	if err != nil {
		return h.authError(c, err)
	}
	return c.JSON(profile)
}

func (h *AuthHandler) RecoverPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.authService.RequestPasswordReset(c.UserContext(), req.Email, req.RedirectTo, locale(c)); err != nil {
		slog.Error("password recovery failed", "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
	return c.JSON(dto.MessageResponse{Message: dto.Localizer(c).T("auth.recovery_sent")})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.authService.ResetPassword(c.UserContext(), &req); err != nil {
		return h.authError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: dto.Localizer(c).T("auth.password_updated")})
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var req dto.UpdatePasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.authService.UpdatePassword(c.UserContext(), userID, req.Password); err != nil {
		return h.authError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: dto.Localizer(c).T("auth.password_updated")})
}

// expireAuthCookies clears every request cookie whose name carries an auth marker.
func (h *AuthHandler) expireAuthCookies(c *fiber.Ctx) {
	var names []string
	c.Request().Header.VisitAllCookie(func(key, _ []byte) {
		name := string(key)
		lower := strings.ToLower(name)
		for _, marker := range h.cookieMarkers {
			if strings.Contains(lower, strings.ToLower(marker)) {
				names = append(names, name)
				return
			}
		}
	})
	if len(names) > 0 {
		c.ClearCookie(names...)
	}
}

func (h *AuthHandler) authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		return dto.Fail(c, fiber.StatusConflict, "auth.email_taken")
	case errors.Is(err, services.ErrInvalidCredentials):
		return dto.Fail(c, fiber.StatusUnauthorized, "auth.invalid_credentials")
	case errors.Is(err, services.ErrEmailNotConfirmed):
		return dto.Fail(c, fiber.StatusForbidden, "auth.email_not_confirmed")
	case errors.Is(err, services.ErrAccountInactive):
		return dto.Fail(c, fiber.StatusForbidden, "auth.account_inactive")
	case errors.Is(err, services.ErrInvalidToken):
		return dto.Fail(c, fiber.StatusUnauthorized, "auth.invalid_refresh")
	case errors.Is(err, services.ErrInvalidLink):
		return dto.Fail(c, fiber.StatusBadRequest, "auth.invalid_link")
	case errors.Is(err, services.ErrUserNotFound):
		return dto.Fail(c, fiber.StatusUnauthorized, "common.unauthorized")
	default:
		slog.Error("auth request failed", "path", c.Path(), "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
}
