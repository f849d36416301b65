package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-tiers/auth"
	"github.com/krishkalaria12/snap-tiers/images"
	"github.com/krishkalaria12/snap-tiers/links"
	"github.com/krishkalaria12/snap-tiers/metrics"
	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/krishkalaria12/snap-tiers/thumbnail"
)

const (
	reasonBadRequest = "bad_request"
	reasonBadToken   = "bad_token"
	reasonWrongScope = "wrong_scope"
)

// Download serves a thumbnail of one image at one height. Every rejection
// before rendering is the same opaque 401.
func (h *Handler) Download(c *fiber.Ctx) error {
	const kind = "thumbnail"

	imageID, ok := idParam(c, "image_id")
	if !ok {
		return h.deny(c, kind, reasonBadRequest)
	}
	size, err := strconv.Atoi(c.Params("size"))
	if err != nil || size <= 0 {
		return h.deny(c, kind, reasonBadRequest)
	}

	user, reason := h.linkUser(c, c.Params("token"), links.KindThumbnail, func(cl *links.Claims) bool {
		return cl.ImageID == imageID && cl.Height == size
	})
	if user == nil {
		return h.deny(c, kind, reason)
	}

	img, err := h.lookupImage(c, imageID)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeDownload(user, img, size); err != nil {
		return h.deny(c, kind, string(auth.ReasonOf(err)))
	}

	original, err := h.images.Open(c.UserContext(), img)
	if err != nil {
		return err
	}

	start := time.Now()
	thumb, err := thumbnail.Render(original, size)
	if errors.Is(err, thumbnail.ErrDecode) {
		metrics.RecordRender("decode_error", time.Since(start).Seconds())
		h.log.Error().Err(err).Uint("image_id", img.ID).Str("storage_path", img.StoragePath).
			Msg("stored image cannot be decoded")
		return c.Status(fiber.StatusUnprocessableEntity).SendString("Unprocessable image")
	}
	if err != nil {
		return err
	}
	metrics.RecordRender("ok", time.Since(start).Seconds())
	metrics.RecordDownload(kind)

	c.Attachment(thumbnail.Filename(img.ID, size))
	c.Set(fiber.HeaderContentType, thumbnail.ContentType)
	return c.Send(thumb)
}

// DownloadOriginal serves the uploaded bytes to plans that grant originals.
func (h *Handler) DownloadOriginal(c *fiber.Ctx) error {
	const kind = "original"

	imageID, ok := idParam(c, "image_id")
	if !ok {
		return h.deny(c, kind, reasonBadRequest)
	}

	user, reason := h.linkUser(c, c.Params("token"), links.KindOriginal, func(cl *links.Claims) bool {
		return cl.ImageID == imageID
	})
	if user == nil {
		return h.deny(c, kind, reason)
	}

	img, err := h.lookupImage(c, imageID)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeOriginal(user, img); err != nil {
		return h.deny(c, kind, string(auth.ReasonOf(err)))
	}
	return h.sendOriginal(c, kind, img)
}

// Shared serves the original behind an expiring link while the link is
// valid and the owner's plan still grants expiring links.
func (h *Handler) Shared(c *fiber.Ctx) error {
	const kind = "expiring"

	claims, err := h.signer.Parse(c.Params("token"), links.KindExpiring)
	if err != nil {
		return h.deny(c, kind, reasonBadToken)
	}
	user := h.claimUser(c, claims)
	if user == nil {
		return h.deny(c, kind, string(auth.ReasonNoUser))
	}

	img, err := h.lookupImage(c, claims.ImageID)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeExpiring(user, img); err != nil {
		return h.deny(c, kind, string(auth.ReasonOf(err)))
	}
	return h.sendOriginal(c, kind, img)
}

// linkUser resolves the token of a download URL to a user. Signed
// capabilities must be of the wanted kind and pass match; session tokens
// are accepted only when configured.
func (h *Handler) linkUser(c *fiber.Ctx, token string, want links.Kind, match func(*links.Claims) bool) (*models.User, string) {
	if links.LooksSigned(token) {
		claims, err := h.signer.Parse(token, want)
		if err != nil {
			return nil, reasonBadToken
		}
		if !match(claims) {
			return nil, reasonWrongScope
		}
		if user := h.claimUser(c, claims); user != nil {
			return user, ""
		}
		return nil, string(auth.ReasonNoUser)
	}

	if !h.link.AllowSessionToken {
		return nil, reasonBadToken
	}
	user, err := h.auth.Authenticate(c.UserContext(), token)
	if err != nil {
		return nil, reasonBadToken
	}
	return user, ""
}

// claimUser loads the current state of the capability's owner so plan
// changes apply to links already handed out.
func (h *Handler) claimUser(c *fiber.Ctx, claims *links.Claims) *models.User {
	id, err := claims.UserID()
	if err != nil {
		return nil
	}
	user, err := h.auth.UserByID(c.UserContext(), id)
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) {
			h.log.Error().Err(err).Uint("user_id", id).Msg("load link owner")
		}
		return nil
	}
	return user
}

// lookupImage returns a nil image, not an error, when it does not exist so
// the authorizer rejects it like any other denial.
func (h *Handler) lookupImage(c *fiber.Ctx, id uint) (*models.Image, error) {
	img, err := h.images.Get(c.UserContext(), id)
	if errors.Is(err, images.ErrNotFound) {
		return nil, nil
	}
	return img, err
}

func (h *Handler) sendOriginal(c *fiber.Ctx, kind string, img *models.Image) error {
	data, err := h.images.Open(c.UserContext(), img)
	if err != nil {
		return err
	}
	metrics.RecordDownload(kind)
	c.Attachment(img.Filename())
	return c.Send(data)
}

func (h *Handler) deny(c *fiber.Ctx, kind, reason string) error {
	metrics.RecordDenied(kind, reason)
	h.log.Debug().Str("kind", kind).Str("reason", reason).Msg("download denied")
	return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
}
