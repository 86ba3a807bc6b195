package favorite

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/config"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/db"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/storage"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/utils"
)

// FavoriteService handles per-user listing bookmarks.
type FavoriteService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	store      storage.Store
}

// NewFavoriteService creates a FavoriteService backed by store.
func NewFavoriteService(cfg *config.Config, store storage.Store) *FavoriteService {
	return &FavoriteService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		store:      store,
	}
}

// AddToFavorites handles POST /favorites.
func (s *FavoriteService) AddToFavorites(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	var payload struct {
		ListingID string `json:"listing_id"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.ListingID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "listing_id is required"})
	}

	listingID, err := uuid.Parse(payload.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing_id"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if _, err := s.store.GetListingByID(ctx, listingID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "listing not found"})
		}
		log.Printf("get listing: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load listing"})
	}

	favorite := &models.Favorite{
		ID:        uuid.New(),
		UserID:    userID,
		ListingID: listingID,
	}

	if err := s.store.AddFavorite(ctx, favorite); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already in favorites"})
		}
		log.Printf("add favorite: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to add favorite"})
	}

	return c.Status(fiber.StatusCreated).JSON(favorite)
}

// RemoveFromFavorites handles DELETE /favorites/:listing_id.
func (s *FavoriteService) RemoveFromFavorites(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing id"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.store.RemoveFavorite(ctx, userID, listingID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "favorite not found"})
		}
		log.Printf("remove favorite: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to remove favorite"})
	}

	return c.JSON(fiber.Map{"message": "removed from favorites"})
}

// GetFavorites handles GET /favorites.
func (s *FavoriteService) GetFavorites(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	favorites, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		log.Printf("list favorites: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load favorites"})
	}

	if favorites == nil {
		favorites = []models.Favorite{}
	}
	return c.JSON(fiber.Map{
		"favorites": favorites,
		"count":     len(favorites),
	})
}
