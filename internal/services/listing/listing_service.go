package listing

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/config"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/db"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/storage"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/utils"
)

// ListingService handles the item catalog: public browsing plus
// owner-scoped create, update and delete.
type ListingService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	store      storage.ListingStore
}

// NewListingService creates a ListingService backed by store.
func NewListingService(cfg *config.Config, store storage.ListingStore) *ListingService {
	return &ListingService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		store:      store,
	}
}

// CreateListing handles POST /listings.
func (s *ListingService) CreateListing(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
		Category    string `json:"category"`
		Condition   string `json:"condition"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.Title == "" || payload.Description == "" || payload.Category == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title, description and category are required"})
	}

	condition := models.Condition(payload.Condition)
	if payload.Condition == "" {
		condition = models.ConditionNew
	} else if !condition.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "condition must be one of: new, used"})
	}

	listing := &models.Listing{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Condition:   condition,
	}
	if payload.ImageURL != "" {
		listing.ImageURL = &payload.ImageURL
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.store.CreateListing(ctx, listing); err != nil {
		log.Printf("create listing: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create listing"})
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetPublicListings handles GET /listings, the public catalog with optional
// category, condition, search and limit query parameters.
func (s *ListingService) GetPublicListings(c fiber.Ctx) error {
	filter := models.ListingFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	if raw := c.Query("condition"); raw != "" {
		condition := models.Condition(raw)
		if !condition.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "condition must be one of: new, used"})
		}
		filter.Condition = &condition
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 20 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 20"})
		}
		filter.Limit = limit
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listings, err := s.store.ListListings(ctx, filter)
	if err != nil {
		log.Printf("list listings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load listings"})
	}

	if listings == nil {
		listings = []models.Listing{}
	}
	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetMyListings handles GET /listings/mine.
func (s *ListingService) GetMyListings(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listings, err := s.store.GetListingsByUser(ctx, userID)
	if err != nil {
		log.Printf("list user listings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load listings"})
	}

	if listings == nil {
		listings = []models.Listing{}
	}
	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetListing handles GET /listings/:id.
func (s *ListingService) GetListing(c fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing id"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := s.store.GetListingByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "listing not found"})
		}
		log.Printf("get listing: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load listing"})
	}

	return c.JSON(listing)
}

// UpdateListing handles PATCH /listings/:id. Only fields present in the body
// change; an explicit empty image_url clears the image.
func (s *ListingService) UpdateListing(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing id"})
	}

	var payload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		ImageURL    *string `json:"image_url"`
		Category    *string `json:"category"`
		Condition   *string `json:"condition"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := s.store.GetListingByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "listing not found"})
		}
		log.Printf("get listing: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load listing"})
	}

	if listing.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
	}

	if payload.Title != nil {
		listing.Title = *payload.Title
	}
	if payload.Description != nil {
		listing.Description = *payload.Description
	}
	if payload.Category != nil {
		listing.Category = *payload.Category
	}
	if payload.Condition != nil {
		condition := models.Condition(*payload.Condition)
		if !condition.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "condition must be one of: new, used"})
		}
		listing.Condition = condition
	}
	if payload.ImageURL != nil {
		if *payload.ImageURL == "" {
			listing.ImageURL = nil
		} else {
			listing.ImageURL = payload.ImageURL
		}
	}

	if err := s.store.UpdateListing(ctx, listing); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "listing not found"})
		}
		log.Printf("update listing: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update listing"})
	}

	return c.JSON(listing)
}

// DeleteListing handles DELETE /listings/:id.
func (s *ListingService) DeleteListing(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing id"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := s.store.GetListingByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "listing not found"})
		}
		log.Printf("get listing: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load listing"})
	}

	if listing.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
	}

	if err := s.store.DeleteListing(ctx, listingID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "listing not found"})
		}
		log.Printf("delete listing: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete listing"})
	}

	return c.JSON(fiber.Map{"message": "listing deleted"})
}
