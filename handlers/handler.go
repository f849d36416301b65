// Package handler holds the HTTP handlers of the snap-tiers API.
package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-tiers/auth"
	"github.com/krishkalaria12/snap-tiers/catalog"
	"github.com/krishkalaria12/snap-tiers/config"
	"github.com/krishkalaria12/snap-tiers/images"
	"github.com/krishkalaria12/snap-tiers/links"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Deps struct {
	DB      *gorm.DB
	Auth    *auth.Service
	Images  *images.Store
	Catalog *catalog.Catalog
	Signer  *links.Signer
	Links   *links.Builder
	Link    config.LinkConfig
	Log     zerolog.Logger
}

type Handler struct {
	db      *gorm.DB
	auth    *auth.Service
	images  *images.Store
	catalog *catalog.Catalog
	signer  *links.Signer
	links   *links.Builder
	link    config.LinkConfig
	log     zerolog.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		db:      d.DB,
		auth:    d.Auth,
		images:  d.Images,
		catalog: d.Catalog,
		signer:  d.Signer,
		links:   d.Links,
		link:    d.Link,
		log:     d.Log.With().Str("component", "http").Logger(),
	}
}

// ErrorHandler answers errors no handler turned into a response.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return errorResponse(c, fe.Code, fe.Message)
		}

		log.Error().Err(err).Str("route", c.Route().Path).Msg("unhandled error")
		return errorResponse(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func idParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
