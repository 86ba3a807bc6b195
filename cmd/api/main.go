package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/config"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/db"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/services/auth"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/services/favorite"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/services/listing"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/services/trade"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/services/upload"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/storage"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	defer pool.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.EnsureSchema(schemaCtx, pool); err != nil {
		log.Fatalf("schema init failed: %v", err)
	}

	store := storage.NewPostgres(pool)

	app := fiber.New(fiber.Config{
		AppName:      "Sharing Things API",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authService := auth.NewAuthService(cfg, store)
	listingService := listing.NewListingService(cfg, store)
	tradeService := trade.NewTradeService(cfg, store)
	favoriteService := favorite.NewFavoriteService(cfg, store)
	uploadService := upload.NewUploadService(cfg)

	authService.SetupRoutes(app)
	listingService.SetupRoutes(app)
	tradeService.SetupRoutes(app)
	favoriteService.SetupRoutes(app)
	uploadService.SetupRoutes(app)

	log.Printf("sharing-things API listening on :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// errorHandler renders unhandled errors in the same JSON shape the handlers
// use for their own failures.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
