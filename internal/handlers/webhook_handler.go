package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	subscriptionService SubscriptionAPI
	expectedAuth        string
}

func NewWebhookHandler(subscriptionService SubscriptionAPI, expectedAuth string) *WebhookHandler {
	return &WebhookHandler{subscriptionService: subscriptionService, expectedAuth: expectedAuth}
}

// HandleBilling applies subscription events. The provider authenticates with
// a shared secret in the Authorization header.
func (h *WebhookHandler) HandleBilling(c *fiber.Ctx) error {
	if h.expectedAuth == "" {
		return dto.Fail(c, fiber.StatusNotFound, "webhook.not_configured")
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(h.expectedAuth)) != 1 {
		return dto.Fail(c, fiber.StatusUnauthorized, "webhook.unauthorized")
	}

	var webhook dto.BillingWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return dto.Fail(c, fiber.StatusBadRequest, "webhook.invalid_payload")
	}

	err := h.subscriptionService.HandleWebhookEvent(c.UserContext(), &webhook.Event)
	if errors.Is(err, services.ErrUserNotFound) {
		// Retrying will not make an unknown user appear.
		slog.Warn("billing event for unknown user", "event_type", webhook.Event.Type, "app_user_id", webhook.Event.AppUserID)
		return c.JSON(fiber.Map{"received": true, "ignored": true})
	}
	if err != nil {
		slog.Error("webhook processing failed", "event_type", webhook.Event.Type, "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}

	slog.Info("webhook processed", "event_type", webhook.Event.Type, "event_id", webhook.Event.ID)
	return c.JSON(fiber.Map{"received": true})
}
