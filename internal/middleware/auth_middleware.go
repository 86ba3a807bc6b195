package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/utils"
)

// AuthMiddleware validates the Bearer token and stores the authenticated
// user id in c.Locals("userID") as a uuid.UUID.
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization header",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header format",
			})
		}

		userID, err := jwtService.ExtractUserID(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals("userID", userID)

		return c.Next()
	}
}
