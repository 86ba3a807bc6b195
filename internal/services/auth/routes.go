package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/middleware"
)

// SetupRoutes registers the authentication endpoints.
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/auth/register", s.RegisterHandler)
	app.Post("/auth/login", s.LoginHandler)
	app.Post("/auth/telegram", s.TelegramAuthHandler)

	protected := app.Group("/auth")
	protected.Use(middleware.AuthMiddleware(s.jwtService))
	protected.Get("/me", s.MeHandler)
}
