package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-tiers/config"
	handler "github.com/krishkalaria12/snap-tiers/handlers"
	"github.com/rs/zerolog"
)

// NewApp creates the fiber app with the server limits from cfg.
func NewApp(cfg config.ServerConfig, log zerolog.Logger) *fiber.App {
	bodyLimit := cfg.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 20
	}

	return fiber.New(fiber.Config{
		AppName:               "snap-tiers",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             bodyLimit * 1024 * 1024,
		ErrorHandler:          handler.ErrorHandler(log),
		DisableStartupMessage: true,
	})
}
