package handlers

import (
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FavoriteHandler struct {
	favoriteService FavoriteAPI
}

func NewFavoriteHandler(favoriteService FavoriteAPI) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

func (h *FavoriteHandler) IDs(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	return h.respondIDs(c, userID, nil)
}

func (h *FavoriteHandler) Properties(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	properties, err := h.favoriteService.Properties(c.UserContext(), userID)
	if err != nil {
		return propertyError(c, err)
	}
	return c.JSON(fiber.Map{"properties": properties})
}

func (h *FavoriteHandler) Add(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	propertyID, ok, err := pathID(c)
	if !ok {
		return err
	}
	return h.respondIDs(c, userID, func() error {
		return h.favoriteService.Add(c.UserContext(), userID, propertyID)
	})
}

func (h *FavoriteHandler) Remove(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	propertyID, ok, err := pathID(c)
	if !ok {
		return err
	}
	return h.respondIDs(c, userID, func() error {
		return h.favoriteService.Remove(c.UserContext(), userID, propertyID)
	})
}

func (h *FavoriteHandler) Toggle(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	propertyID, ok, err := pathID(c)
	if !ok {
		return err
	}

	favorited, ids, err := h.favoriteService.Toggle(c.UserContext(), userID, propertyID)
	if err != nil {
		return propertyError(c, err)
	}
	return c.JSON(dto.FavoriteToggleResponse{
		PropertyID:  propertyID.String(),
		Favorited:   favorited,
		PropertyIDs: idStrings(ids),
	})
}

func (h *FavoriteHandler) Clear(c *fiber.Ctx) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	if err := h.favoriteService.Clear(c.UserContext(), userID); err != nil {
		return propertyError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: dto.Localizer(c).T("favorites.cleared")})
}

// respondIDs runs write, if any, and answers with the user's resulting favorite set.
func (h *FavoriteHandler) respondIDs(c *fiber.Ctx, userID uuid.UUID, write func() error) error {
	if write != nil {
		if err := write(); err != nil {
			return propertyError(c, err)
		}
	}
	ids, err := h.favoriteService.IDs(c.UserContext(), userID)
	if err != nil {
		return propertyError(c, err)
	}
	return c.JSON(dto.FavoriteIDsResponse{PropertyIDs: idStrings(ids)})
}
