package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SundayYogurt/visa_admin/config"
	"github.com/SundayYogurt/visa_admin/infra/queue"
	"github.com/SundayYogurt/visa_admin/internal/api/rest/handlers"
	"github.com/SundayYogurt/visa_admin/internal/helper"
	"github.com/SundayYogurt/visa_admin/internal/helper/utils"
	"github.com/SundayYogurt/visa_admin/internal/repository"
	"github.com/SundayYogurt/visa_admin/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp wires the admin review routes around svc.
func NewApp(svc services.ReviewService, auth helper.Auth, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "visa-admin devserver",
		DisableStartupMessage: true,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return utils.ResponseError(ctx, fe.Code, fe.Message)
			}
			return utils.ResponseError(ctx, fiber.StatusInternalServerError, "Internal server error")
		},
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, OPTIONS",
	}))

	handlers.NewAdminHandler(svc, auth).SetupRoutes(app)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	return app
}

// StartServer runs the devserver until ctx is cancelled.
func StartServer(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.ServerReady(); err != nil {
		return err
	}

	// ---------- Store ----------
	var repo repository.ApplicationRepository
	if cfg.DatabaseDSN != "" {
		db, err := repository.OpenPostgres(cfg.DatabaseDSN, cfg.LogLevel == "debug")
		if err != nil {
			return err
		}
		defer func() { _ = repository.Close(db) }()
		log.Info("database connected")

		if err := repository.Migrate(db, log); err != nil {
			return err
		}
		repo = repository.NewApplicationRepository(db)
	} else {
		log.Info("DATABASE_DSN not set, serving seeded in-memory data")
		repo = repository.NewMemoryRepository(repository.SeedData(time.Now()))
	}

	// ---------- Infra ----------
	var publisher *services.DecisionPublisher
	if cfg.KafkaEnabled() {
		producer := queue.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaUsername, cfg.KafkaPassword, log)
		defer func() { _ = producer.Close() }()
		publisher = services.NewDecisionPublisher(producer, log)
		log.Info("publishing decisions", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	}

	authHelper := helper.SetupAuth(cfg.AccessSecret, cfg.TokenTTL)

	// ---------- Service ----------
	svc, err := services.NewReviewService(repo, authHelper, cfg.AdminEmail, cfg.AdminPassword, publisher, log)
	if err != nil {
		return err
	}

	app := NewApp(svc, authHelper, true)

	// ---------- Listen ----------
	errCh := make(chan error, 1)
	go func() {
		log.Info("devserver listening", "addr", cfg.ServerPort)
		errCh <- app.Listen(cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("devserver shutting down")
		return app.ShutdownWithTimeout(5 * time.Second)
	}
}
