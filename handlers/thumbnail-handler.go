package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-tiers/catalog"
)

func (h *Handler) ListThumbnailSizes(c *fiber.Ctx) error {
	sizes, err := h.catalog.ThumbnailSizes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(sizes)
}

func (h *Handler) CreateThumbnailSize(c *fiber.Ctx) error {
	type NewSize struct {
		Size int `json:"size" form:"size"`
	}

	var input NewSize
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid input")
	}

	size, err := h.catalog.CreateThumbnailSize(c.UserContext(), input.Size)
	switch {
	case errors.Is(err, catalog.ErrInvalidSize):
		return errorResponse(c, fiber.StatusBadRequest, "size must be a positive integer")
	case errors.Is(err, catalog.ErrDuplicateSize):
		return errorResponse(c, fiber.StatusBadRequest, "thumbnail with this size already exists")
	case err != nil:
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(size)
}

func (h *Handler) DeleteThumbnailSize(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusNotFound, "Thumbnail size not found")
	}

	err := h.catalog.DeleteThumbnailSize(c.UserContext(), id)
	if errors.Is(err, catalog.ErrSizeNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "Thumbnail size not found")
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.catalog.Plans(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(plans)
}
