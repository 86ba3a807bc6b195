package trade

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/middleware"
)

// SetupRoutes registers the offer endpoints. All of them require auth.
func (s *TradeService) SetupRoutes(app *fiber.App) {
	api := app.Group("/offers")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CreateOffer)
	api.Get("/", s.GetOffers)
	api.Patch("/:id", s.UpdateOfferStatus)
}
