package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// PingFunc checks one backing dependency.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	dbPing    PingFunc
	cachePing PingFunc
}

func NewHealthHandler(dbPing, cachePing PingFunc) *HealthHandler {
	return &HealthHandler{dbPing: dbPing, cachePing: cachePing}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        pingStatus(ctx, h.dbPing),
		Cache:     pingStatus(ctx, h.cachePing),
	}
	if resp.DB != "ok" {
		resp.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func pingStatus(ctx context.Context, ping PingFunc) string {
	if ping == nil {
		return "disabled"
	}
	if err := ping(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "ok"
}
