package upload

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/middleware"
)

// SetupRoutes registers the upload endpoints. All of them require auth.
func (s *UploadService) SetupRoutes(app *fiber.App) {
	api := app.Group("/uploads")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/params", s.GenerateUploadParams)
}
