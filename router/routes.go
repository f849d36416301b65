package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/krishkalaria12/snap-tiers/auth"
	handler "github.com/krishkalaria12/snap-tiers/handlers"
	"github.com/krishkalaria12/snap-tiers/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func SetupRoutes(app *fiber.App, h *handler.Handler, authService *auth.Service, log zerolog.Logger) {
	app.Use(recover.New(), requestid.New(), middleware.RequestLogger(log))

	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth
	app.Post("/token/", h.Login)

	// Download links carry their own credential.
	app.Get("/download/:image_id/:size/:token", h.Download)
	app.Get("/original/:image_id/:token", h.DownloadOriginal)
	app.Get("/shared/:token", h.Shared)

	// User
	requireToken := middleware.AuthMiddleware(authService)
	app.Get("/me/", requireToken, h.Me)
	app.Get("/images-list/", requireToken, h.ListImages)
	app.Post("/image/", requireToken, h.UploadImage)
	app.Delete("/image/:id/", requireToken, h.DeleteImage)
	app.Post("/image/:id/expiring-link/", requireToken, h.CreateExpiringLink)

	// Staff
	staff := middleware.StaffOnly(authService, log)
	app.Get("/thumbnails/", staff, h.ListThumbnailSizes)
	app.Post("/thumbnails/", staff, h.CreateThumbnailSize)
	app.Delete("/thumbnails/:id/", staff, h.DeleteThumbnailSize)
	app.Get("/plans/", staff, h.ListPlans)
	app.Put("/users/:id/plan/", staff, h.SetUserPlan)
	app.Get("/admin/images/", staff, h.AdminListImages)
}
