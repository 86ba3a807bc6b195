package favorite

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/middleware"
)

// SetupRoutes registers the favorites endpoints. All of them require auth.
func (s *FavoriteService) SetupRoutes(app *fiber.App) {
	api := app.Group("/favorites")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetFavorites)
	api.Post("/", s.AddToFavorites)
	api.Delete("/:listing_id", s.RemoveFromFavorites)
}
