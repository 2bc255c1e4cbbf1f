package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/live-commerce/claim-service/internal/config"
	"github.com/live-commerce/claim-service/internal/handlers"
	"github.com/live-commerce/claim-service/internal/ledger"
	"github.com/live-commerce/claim-service/internal/messaging"
	"github.com/live-commerce/claim-service/internal/repository"
	"github.com/live-commerce/claim-service/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	log.Info().Str("port", cfg.Port).Str("db", cfg.DBName).Msg("starting claim service")

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	stockLedger := ledger.New()
	stockRepo := repository.NewStockRepository(db)

	items, err := stockRepo.LoadItems(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("inventory load failed")
	}
	for _, item := range items {
		if err := stockLedger.Register(item); err != nil {
			log.Fatal().Err(err).Str("item_id", item.ID.String()).Msg("ledger registration failed")
		}
	}
	log.Info().Int("items", len(items)).Msg("ledger loaded")

	go stockRepo.Run(ctx)

	rabbitConfig := messaging.NewRabbitMQConfig()
	rabbitClient := messaging.NewRabbitMQClient(rabbitConfig)

	if err := rabbitClient.Connect(); err != nil {
		log.Fatal().Err(err).Msg("rabbitmq connection failed")
	}
	defer rabbitClient.Close()

	publisher := messaging.NewPublisher(rabbitClient)
	consumer := messaging.NewConsumer(rabbitClient, "claim-service-queue", "claim-service")

	claimRepo := repository.NewClaimRepository(db)
	claimService := service.NewClaimService(stockLedger, claimRepo, publisher, stockRepo, service.Config{
		AutoWaitlist:      cfg.AutoWaitlist,
		AutoPromote:       cfg.AutoPromote,
		ResellJoyReserved: cfg.ResellJoyReserved,
	}, log.Logger)
	claimHandler := handlers.NewClaimHandler(claimService)

	app := setupFiberApp()
	setupRoutes(app, claimHandler)

	if err := claimHandler.StartConsuming(consumer); err != nil {
		log.Error().Err(err).Msg("rabbitmq consumption failed")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down claim service")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	log.Info().Str("addr", ":"+cfg.Port).Msg("claim service listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server startup failed")
	}
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("database open error: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database ping error: %v", err)
	}

	log.Info().Str("db", cfg.DBName).Msg("database connected")
	return db, nil
}

func setupFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Claim Service v1.0",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}

func setupRoutes(app *fiber.App, claimHandler *handlers.ClaimHandler) {
	api := app.Group("/api/v1")

	api.Get("/health", claimHandler.HealthCheck)

	api.Post("/sessions/:session_id/claims", claimHandler.CreateClaim)
	api.Get("/sessions/:session_id/claims", claimHandler.ListClaims)
	api.Post("/sessions/:session_id/waitlist/promote", claimHandler.PromoteWaitlist)

	api.Patch("/claims/:id/status", claimHandler.UpdateClaimStatus)
	api.Delete("/claims/:id", claimHandler.DeleteClaim)

	api.Get("/items", claimHandler.ListItems)
	api.Get("/items/:item_id/stock", claimHandler.GetAvailableStock)

	app.Use("*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route not found",
		})
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Error().Err(err).Msg("unhandled request error")

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}
