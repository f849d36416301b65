package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-tiers/auth"
	"github.com/krishkalaria12/snap-tiers/images"
	"github.com/krishkalaria12/snap-tiers/listing"
	"github.com/krishkalaria12/snap-tiers/metrics"
	"github.com/krishkalaria12/snap-tiers/middleware"
	"github.com/krishkalaria12/snap-tiers/models"
)

const (
	MinExpiringSeconds = 300
	MaxExpiringSeconds = 30000
)

type ImageResponse struct {
	ID        uint      `json:"id"`
	Image     string    `json:"image"`
	Owner     uint      `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

func imageResponse(img *models.Image) ImageResponse {
	return ImageResponse{ID: img.ID, Image: img.Filename(), Owner: img.OwnerID, CreatedAt: img.CreatedAt}
}

// UploadImage stores the multipart "image" field for the caller.
func (h *Handler) UploadImage(c *fiber.Ctx) error {
	user, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required")
	}

	file, err := c.FormFile("image")
	if err != nil {
		metrics.RecordUpload("rejected")
		return errorResponse(c, fiber.StatusBadRequest, "No file was submitted")
	}

	blobFile, err := file.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Error opening the file")
	}
	defer blobFile.Close()

	data, err := io.ReadAll(blobFile)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Error reading the file")
	}

	img, err := h.images.Create(c.UserContext(), user.ID, file.Filename, data)
	if errors.Is(err, images.ErrInvalidImage) {
		metrics.RecordUpload("rejected")
		return errorResponse(c, fiber.StatusBadRequest, "Upload a valid image. The file you uploaded was either not an image or a corrupted image")
	}
	if err != nil {
		metrics.RecordUpload("error")
		return err
	}

	metrics.RecordUpload("ok")
	return c.Status(fiber.StatusCreated).JSON(imageResponse(img))
}

func (h *Handler) DeleteImage(c *fiber.Ctx) error {
	user, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required")
	}

	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusNotFound, "Image not found")
	}

	err = h.images.Delete(c.UserContext(), user.ID, id)
	if errors.Is(err, images.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "Image not found")
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListImages returns the caller's images with the links their plan grants.
func (h *Handler) ListImages(c *fiber.Ctx) error {
	user, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required")
	}

	imgs, err := h.images.ListByOwner(c.UserContext(), user.ID)
	if err != nil {
		return err
	}

	minter := h.links.WithSessionToken(middleware.SessionToken(c))
	entries, err := listing.Assemble(imgs, auth.AuthorizeListing(user), minter, h.link.ExpiringTTL)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// CreateExpiringLink mints a time-limited share link for an owned image.
func (h *Handler) CreateExpiringLink(c *fiber.Ctx) error {
	type ExpiringLinkRequest struct {
		Seconds int `json:"seconds" form:"seconds"`
	}

	user, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required")
	}

	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusNotFound, "Image not found")
	}

	var input ExpiringLinkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	ttl := h.link.ExpiringTTL
	if input.Seconds != 0 {
		if input.Seconds < MinExpiringSeconds || input.Seconds > MaxExpiringSeconds {
			return errorResponse(c, fiber.StatusBadRequest, "seconds must be between 300 and 30000")
		}
		ttl = time.Duration(input.Seconds) * time.Second
	}

	img, err := h.images.Get(c.UserContext(), id)
	if err != nil && !errors.Is(err, images.ErrNotFound) {
		return err
	}

	err = auth.AuthorizeExpiring(user, img)
	switch auth.ReasonOf(err) {
	case "":
	case auth.ReasonNoExpiring:
		return errorResponse(c, fiber.StatusForbidden, "Your plan does not include expiring links")
	default:
		return errorResponse(c, fiber.StatusNotFound, "Image not found")
	}

	url, expiresAt, err := h.links.ExpiringURL(*img, ttl)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url":        url,
		"expires_at": expiresAt,
	})
}

// AdminListImages lists every image for staff.
func (h *Handler) AdminListImages(c *fiber.Ctx) error {
	imgs, err := h.images.ListAll(c.UserContext())
	if err != nil {
		return err
	}

	resp := make([]ImageResponse, 0, len(imgs))
	for i := range imgs {
		resp = append(resp, imageResponse(&imgs[i]))
	}
	return c.JSON(resp)
}
