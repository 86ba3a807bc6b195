package trade

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

// TradeService exposes the offer negotiation over HTTP.
type TradeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	engine     *Engine
}

// NewTradeService creates a TradeService backed by store.
func NewTradeService(cfg *config.Config, store storage.Store) *TradeService {
	return &TradeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		engine:     NewEngine(store, store),
	}
}

// CreateOffer handles POST /offers.
func (s *TradeService) CreateOffer(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	var payload struct {
		SenderListingID   string `json:"sender_listing_id"`
		ReceiverListingID string `json:"receiver_listing_id"`
		Comment           string `json:"comment"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.SenderListingID == "" || payload.ReceiverListingID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sender_listing_id and receiver_listing_id are required"})
	}

	senderListingID, err := uuid.Parse(payload.SenderListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid sender_listing_id"})
	}
	receiverListingID, err := uuid.Parse(payload.ReceiverListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid receiver_listing_id"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	trade, err := s.engine.CreateOffer(ctx, userID, CreateOfferInput{
		SenderListingID:   senderListingID,
		ReceiverListingID: receiverListingID,
		Comment:           payload.Comment,
	})
	if err != nil {
		return s.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(trade)
}

// GetOffers handles GET /offers. Without sender_id and receiver_id it lists
// the caller's offers in either role; with filters it returns exactly what
// was asked for.
func (s *TradeService) GetOffers(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	var filter models.TradeFilter

	if raw := c.Query("sender_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid sender_id"})
		}
		filter.SenderID = &id
	}
	if raw := c.Query("receiver_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid receiver_id"})
		}
		filter.ReceiverID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TradeStatus(raw)
		if !status.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
		}
		filter.Status = &status
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var offers []models.Trade
	var err error
	if filter.SenderID == nil && filter.ReceiverID == nil {
		offers, err = s.engine.ListOffersInvolvingUser(ctx, userID, filter.Status)
	} else {
		offers, err = s.engine.ListOffers(ctx, filter)
	}
	if err != nil {
		log.Printf("list offers: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load offers"})
	}

	if offers == nil {
		offers = []models.Trade{}
	}
	return c.JSON(fiber.Map{
		"offers": offers,
		"count":  len(offers),
	})
}

// UpdateOfferStatus handles PATCH /offers/:id.
func (s *TradeService) UpdateOfferStatus(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid offer id"})
	}

	var payload struct {
		Status string `json:"status"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status is required"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	trade, err := s.engine.TransitionStatus(ctx, tradeID, models.TradeStatus(payload.Status), userID)
	if err != nil {
		return s.renderError(c, err)
	}

	return c.JSON(trade)
}

// renderError maps engine errors to HTTP responses.
func (s *TradeService) renderError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrListingNotFound), errors.Is(err, ErrOfferNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrSelfTrade), errors.Is(err, ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrNotReceiver):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("trade operation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
