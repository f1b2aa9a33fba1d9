package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PropertyHandler struct {
	propertyService PropertyAPI
}

func NewPropertyHandler(propertyService PropertyAPI) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

func (h *PropertyHandler) List(c *fiber.Ctx) error {
	return h.list(c, false)
}

// AdminList includes unpublished listings.
func (h *PropertyHandler) AdminList(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *PropertyHandler) list(c *fiber.Ctx, includeUnpublished bool) error {
	var filter dto.PropertyFilter
	if err := c.QueryParser(&filter); err != nil {
		return dto.Fail(c, fiber.StatusBadRequest, "common.validation_failed", err.Error())
	}
	if err := dto.Validate(filter); err != nil {
		return dto.Fail(c, fiber.StatusBadRequest, "common.validation_failed", err.Error())
	}
	filter.IncludeUnpublished = includeUnpublished

	resp, err := h.propertyService.List(c.UserContext(), filter)
	if err != nil {
		return propertyError(c, err)
	}
	return c.JSON(resp)
}

func (h *PropertyHandler) Get(c *fiber.Ctx) error {
	id, ok, err := pathID(c)
	if !ok {
		return err
	}

	property, err := h.propertyService.Get(c.UserContext(), id, false)
	if err != nil {
		return propertyError(c, err)
	}
	return c.JSON(property)
}

func (h *PropertyHandler) Create(c *fiber.Ctx) error {
	var req dto.PropertyRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	property, err := h.propertyService.Create(c.UserContext(), &req)
	if err != nil {
		return propertyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(property)
}

func (h *PropertyHandler) Update(c *fiber.Ctx) error {
	id, ok, err := pathID(c)
	if !ok {
		return err
	}

	var req dto.PropertyRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	property, err := h.propertyService.Update(c.UserContext(), id, &req)
	if err != nil {
		return propertyError(c, err)
	}
	return c.JSON(property)
}

func (h *PropertyHandler) Delete(c *fiber.Ctx) error {
	id, ok, err := pathID(c)
	if !ok {
		return err
	}

	if err := h.propertyService.Delete(c.UserContext(), id); err != nil {
		return propertyError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: dto.Localizer(c).T("property.deleted")})
}

func propertyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrPropertyNotFound) {
		return dto.Fail(c, fiber.StatusNotFound, "property.not_found")
	}
	slog.Error("property request failed", "path", c.Path(), "error", err)
	return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
}
