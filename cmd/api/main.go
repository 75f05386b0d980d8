package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ajg707/laurx-portal/internal/application/groups"
	infrafirestore "github.com/ajg707/laurx-portal/internal/infrastructure/firestore"
	"github.com/ajg707/laurx-portal/internal/infrastructure/postgres"
	infraredis "github.com/ajg707/laurx-portal/internal/infrastructure/redis"
	"github.com/ajg707/laurx-portal/internal/infrastructure/scheduler"
	httpRouter "github.com/ajg707/laurx-portal/internal/interfaces/http"
	"github.com/ajg707/laurx-portal/pkg/config"
	"github.com/ajg707/laurx-portal/pkg/logger"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to PostgreSQL")
	}
	defer pool.Close()

	fsClient, err := infrafirestore.NewClient(ctx, cfg.Firestore)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to Firestore")
	}
	defer fsClient.Close()

	// Redis is optional: without REDIS_URL every dynamic resolution re-evaluates.
	var cache groups.MembershipCache
	if cfg.Redis.URL != "" {
		redisClient, err := infraredis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, membership cache disabled")
		} else {
			defer redisClient.Close()
			cache = infraredis.NewMembershipCache(redisClient, cfg.Redis.KeyPrefix, cfg.Groups.CacheTTL)
			log.Info().Dur("ttl", cfg.Groups.CacheTTL).Msg("membership cache enabled")
		}
	}

	groupRepo := postgres.NewCustomerGroupRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	reader := infrafirestore.NewSnapshotReader(fsClient, infrafirestore.DefaultCollections(cfg.Firestore.CollectionPrefix))
	loader := groups.NewSnapshotLoader(reader, cfg.Groups.FetchTimeout)

	groupUC := groups.NewGroupUseCase(groupRepo, txRunner, loader, cache, log.Component("groups"))
	factsUC := groups.NewCustomerFactsUseCase(loader)

	var refresh *scheduler.Scheduler
	if cfg.Groups.RefreshSchedule != "" {
		refresh = scheduler.New(groupUC, log, cfg.Groups.RefreshSchedule, cfg.Groups.RefreshTimeout)
		if err := refresh.Start(); err != nil {
			log.Fatal().Err(err).Msg("start group refresh scheduler")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Groups.FetchTimeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Laurx Portal API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		GroupUC:   groupUC,
		FactsUC:   factsUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if refresh != nil {
		select {
		case <-refresh.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("group refresh still running at shutdown")
		}
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("stopped")
}
