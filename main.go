package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishkalaria12/snap-tiers/auth"
	"github.com/krishkalaria12/snap-tiers/catalog"
	"github.com/krishkalaria12/snap-tiers/config"
	"github.com/krishkalaria12/snap-tiers/database"
	handler "github.com/krishkalaria12/snap-tiers/handlers"
	"github.com/krishkalaria12/snap-tiers/images"
	"github.com/krishkalaria12/snap-tiers/links"
	"github.com/krishkalaria12/snap-tiers/logger"
	"github.com/krishkalaria12/snap-tiers/router"
	"github.com/krishkalaria12/snap-tiers/storage"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	// close the database connection
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	ctx := context.Background()
	backend, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}

	plans := catalog.New(db, log)
	if cfg.SeedPlans {
		if _, err := plans.SeedDefaultPlans(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to seed plans")
		}
	}

	store := images.NewStore(db, backend, cfg.Storage.Timeout, log).
		WithMaxDimensions(cfg.Image.MaxWidth, cfg.Image.MaxHeight)
	authService := auth.NewService(db, store, log)
	signer := links.NewSigner(cfg.Link.Secret, cfg.Link.Issuer)

	h := handler.New(handler.Deps{
		DB:      db,
		Auth:    authService,
		Images:  store,
		Catalog: plans,
		Signer:  signer,
		Links:   links.NewBuilder(signer, cfg.HostBase, cfg.Link.DownloadTTL, cfg.Link.AllowSessionToken),
		Link:    cfg.Link,
		Log:     log,
	})

	app := router.NewApp(cfg.Server, log)
	router.SetupRoutes(app, h, authService, log)

	go func() {
		log.Info().Msgf("server is listening at the port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server")
	}
	log.Info().Msg("server stopped")
}
