package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/storage"
)

// Domain errors of the negotiation flow. The HTTP layer maps these to status
// codes; everything else is treated as an internal failure.
var (
	ErrListingNotFound = errors.New("receiver listing not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrSelfTrade       = errors.New("cannot trade with yourself")
	ErrNotReceiver     = errors.New("cannot modify this offer")
	ErrInvalidStatus   = errors.New("status must be accepted or rejected")
)

// CreateOfferInput carries the caller-supplied fields of a new offer.
type CreateOfferInput struct {
	SenderListingID   uuid.UUID
	ReceiverListingID uuid.UUID
	Comment           string
}

// Engine enforces the offer rules independent of any transport. It only
// talks to the stores it is given, so tests run it against the in-memory
// implementation.
type Engine struct {
	listings storage.ListingStore
	trades   storage.TradeStore
}

// NewEngine creates an Engine on top of the given stores.
func NewEngine(listings storage.ListingStore, trades storage.TradeStore) *Engine {
	return &Engine{listings: listings, trades: trades}
}

// CreateOffer validates the request and persists a pending offer. The
// receiver is derived from the current owner of the receiver listing, never
// taken from the caller. The sender listing reference is stored as given:
// it is not checked for existence or ownership, so an offer may point at a
// sender listing that was never created.
func (e *Engine) CreateOffer(ctx context.Context, senderID uuid.UUID, input CreateOfferInput) (*models.Trade, error) {
	receiverListing, err := e.listings.GetListingByID(ctx, input.ReceiverListingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	if receiverListing.UserID == senderID {
		return nil, ErrSelfTrade
	}

	trade := &models.Trade{
		ID:                uuid.New(),
		SenderID:          senderID,
		ReceiverID:        receiverListing.UserID,
		SenderListingID:   input.SenderListingID,
		ReceiverListingID: input.ReceiverListingID,
		Comment:           input.Comment,
		Status:            models.TradeStatusPending,
	}

	if err := e.trades.CreateTrade(ctx, trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// TransitionStatus sets an offer's status to accepted or rejected. Only the
// offer's receiver may do this, and the new status is applied regardless of
// the current one: re-deciding an already accepted or rejected offer simply
// overwrites the previous decision.
func (e *Engine) TransitionStatus(ctx context.Context, tradeID uuid.UUID, newStatus models.TradeStatus, actorID uuid.UUID) (*models.Trade, error) {
	if newStatus != models.TradeStatusAccepted && newStatus != models.TradeStatusRejected {
		return nil, ErrInvalidStatus
	}

	trade, err := e.trades.GetTradeByID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}

	if trade.ReceiverID != actorID {
		return nil, ErrNotReceiver
	}

	updated, err := e.trades.UpdateTradeStatus(ctx, tradeID, newStatus)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return updated, nil
}

// ListOffers returns offers matching filter in creation order.
func (e *Engine) ListOffers(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error) {
	return e.trades.ListTrades(ctx, filter)
}

// ListOffersInvolvingUser returns every offer where the user appears as
// sender or receiver, optionally narrowed by status.
func (e *Engine) ListOffersInvolvingUser(ctx context.Context, userID uuid.UUID, status *models.TradeStatus) ([]models.Trade, error) {
	return e.trades.ListTrades(ctx, models.TradeFilter{
		SenderID:   &userID,
		ReceiverID: &userID,
		Status:     status,
	})
}
