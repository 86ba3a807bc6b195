package listing

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/middleware"
)

// SetupRoutes registers the catalog endpoints. Browsing is public; writes
// and the "mine" view require auth. The mine route is registered before the
// :id route so it is not swallowed by the parameter match.
func (s *ListingService) SetupRoutes(app *fiber.App) {
	authRequired := middleware.AuthMiddleware(s.jwtService)

	app.Get("/listings", s.GetPublicListings)
	app.Post("/listings", s.CreateListing, authRequired)
	app.Get("/listings/mine", s.GetMyListings, authRequired)
	app.Get("/listings/:id", s.GetListing)
	app.Patch("/listings/:id", s.UpdateListing, authRequired)
	app.Delete("/listings/:id", s.DeleteListing, authRequired)
}
