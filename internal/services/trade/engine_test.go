package trade_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/services/trade"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/storage"
)

type engineFixture struct {
	store  *storage.Memory
	engine *trade.Engine

	sender   uuid.UUID
	receiver uuid.UUID

	senderListing   uuid.UUID
	receiverListing uuid.UUID
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemory()

	f := &engineFixture{
		store:  store,
		engine: trade.NewEngine(store, store),
	}

	sender := &models.User{ID: uuid.New(), Username: "sender"}
	receiver := &models.User{ID: uuid.New(), Username: "receiver"}
	require.NoError(t, store.CreateUser(ctx, sender))
	require.NoError(t, store.CreateUser(ctx, receiver))
	f.sender = sender.ID
	f.receiver = receiver.ID

	senderListing := &models.Listing{
		ID: uuid.New(), UserID: sender.ID,
		Title: "old bike", Description: "rusty but works", Category: "sport", Condition: models.ConditionUsed,
	}
	receiverListing := &models.Listing{
		ID: uuid.New(), UserID: receiver.ID,
		Title: "guitar", Description: "six strings", Category: "music", Condition: models.ConditionUsed,
	}
	require.NoError(t, store.CreateListing(ctx, senderListing))
	require.NoError(t, store.CreateListing(ctx, receiverListing))
	f.senderListing = senderListing.ID
	f.receiverListing = receiverListing.ID

	return f
}

func (f *engineFixture) createOffer(t *testing.T) *models.Trade {
	t.Helper()
	offer, err := f.engine.CreateOffer(context.Background(), f.sender, trade.CreateOfferInput{
		SenderListingID:   f.senderListing,
		ReceiverListingID: f.receiverListing,
		Comment:           "swap?",
	})
	require.NoError(t, err)
	return offer
}

func TestCreateOffer(t *testing.T) {
	f := newEngineFixture(t)

	offer := f.createOffer(t)

	assert.NotEqual(t, uuid.Nil, offer.ID)
	assert.Equal(t, models.TradeStatusPending, offer.Status)
	assert.Equal(t, f.sender, offer.SenderID)
	assert.Equal(t, f.receiver, offer.ReceiverID, "receiver must come from the listing owner")
	assert.Equal(t, "swap?", offer.Comment)

	stored, err := f.store.GetTradeByID(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.ID, stored.ID)
}

func TestCreateOfferReceiverListingMissing(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.CreateOffer(context.Background(), f.sender, trade.CreateOfferInput{
		SenderListingID:   f.senderListing,
		ReceiverListingID: uuid.New(),
	})
	assert.ErrorIs(t, err, trade.ErrListingNotFound)
}

func TestCreateOfferSelfTrade(t *testing.T) {
	f := newEngineFixture(t)

	// The caller targets their own listing, offering it for itself.
	_, err := f.engine.CreateOffer(context.Background(), f.receiver, trade.CreateOfferInput{
		SenderListingID:   f.receiverListing,
		ReceiverListingID: f.receiverListing,
	})
	assert.ErrorIs(t, err, trade.ErrSelfTrade)
}

func TestCreateOfferSenderListingNotValidated(t *testing.T) {
	f := newEngineFixture(t)

	// The sender side is stored as given even when no such listing exists.
	offer, err := f.engine.CreateOffer(context.Background(), f.sender, trade.CreateOfferInput{
		SenderListingID:   uuid.New(),
		ReceiverListingID: f.receiverListing,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusPending, offer.Status)
}

func TestTransitionStatusAcceptAndReject(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	offer := f.createOffer(t)

	accepted, err := f.engine.TransitionStatus(ctx, offer.ID, models.TradeStatusAccepted, f.receiver)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusAccepted, accepted.Status)
	assert.Equal(t, offer.Comment, accepted.Comment, "transition only touches the status")

	// The sender cannot override the receiver's decision.
	_, err = f.engine.TransitionStatus(ctx, offer.ID, models.TradeStatusRejected, f.sender)
	assert.ErrorIs(t, err, trade.ErrNotReceiver)
	stored, err := f.store.GetTradeByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusAccepted, stored.Status)

	rejected, err := f.engine.TransitionStatus(ctx, offer.ID, models.TradeStatusRejected, f.receiver)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusRejected, rejected.Status,
		"an accepted offer can still be rejected, there is no state guard")
}

func TestTransitionStatusInvalidTarget(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	offer := f.createOffer(t)

	_, err := f.engine.TransitionStatus(ctx, offer.ID, models.TradeStatusPending, f.receiver)
	assert.ErrorIs(t, err, trade.ErrInvalidStatus, "pending is not a legal target")

	_, err = f.engine.TransitionStatus(ctx, offer.ID, models.TradeStatus("canceled"), f.receiver)
	assert.ErrorIs(t, err, trade.ErrInvalidStatus)
}

func TestTransitionStatusValidatesTargetBeforeLookup(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.TransitionStatus(context.Background(), uuid.New(), models.TradeStatus("bogus"), f.receiver)
	assert.ErrorIs(t, err, trade.ErrInvalidStatus)
}

func TestTransitionStatusOfferMissing(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.TransitionStatus(context.Background(), uuid.New(), models.TradeStatusAccepted, f.receiver)
	assert.ErrorIs(t, err, trade.ErrOfferNotFound)
}

func TestTransitionStatusOnlyReceiver(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	offer := f.createOffer(t)

	_, err := f.engine.TransitionStatus(ctx, offer.ID, models.TradeStatusAccepted, f.sender)
	assert.ErrorIs(t, err, trade.ErrNotReceiver, "the sender cannot decide their own offer")

	_, err = f.engine.TransitionStatus(ctx, offer.ID, models.TradeStatusAccepted, uuid.New())
	assert.ErrorIs(t, err, trade.ErrNotReceiver)

	stored, err := f.store.GetTradeByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusPending, stored.Status, "failed transitions must not write")
}

func TestListOffersRoleFilters(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	// A third user trades with the receiver too, so the filters have
	// something to exclude.
	other := &models.User{ID: uuid.New(), Username: "other"}
	require.NoError(t, f.store.CreateUser(ctx, other))
	otherListing := &models.Listing{
		ID: uuid.New(), UserID: other.ID,
		Title: "lamp", Description: "warm light", Category: "home", Condition: models.ConditionNew,
	}
	require.NoError(t, f.store.CreateListing(ctx, otherListing))

	first := f.createOffer(t)

	second, err := f.engine.CreateOffer(ctx, other.ID, trade.CreateOfferInput{
		SenderListingID:   otherListing.ID,
		ReceiverListingID: f.receiverListing,
	})
	require.NoError(t, err)

	third, err := f.engine.CreateOffer(ctx, f.receiver, trade.CreateOfferInput{
		SenderListingID:   f.receiverListing,
		ReceiverListingID: otherListing.ID,
	})
	require.NoError(t, err)

	t.Run("by sender", func(t *testing.T) {
		offers, err := f.engine.ListOffers(ctx, models.TradeFilter{SenderID: &f.sender})
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, first.ID, offers[0].ID)
	})

	t.Run("by receiver", func(t *testing.T) {
		offers, err := f.engine.ListOffers(ctx, models.TradeFilter{ReceiverID: &f.receiver})
		require.NoError(t, err)
		require.Len(t, offers, 2)
		assert.Equal(t, first.ID, offers[0].ID, "creation order is preserved")
		assert.Equal(t, second.ID, offers[1].ID)
	})

	t.Run("both filters widen to either role", func(t *testing.T) {
		offers, err := f.engine.ListOffers(ctx, models.TradeFilter{
			SenderID:   &f.sender,
			ReceiverID: &other.ID,
		})
		require.NoError(t, err)
		// first matches the sender side, third matches the receiver side.
		require.Len(t, offers, 2)
		assert.Equal(t, first.ID, offers[0].ID)
		assert.Equal(t, third.ID, offers[1].ID)
	})
}

func TestListOffersStatusFilter(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first := f.createOffer(t)
	second := f.createOffer(t)

	_, err := f.engine.TransitionStatus(ctx, first.ID, models.TradeStatusAccepted, f.receiver)
	require.NoError(t, err)

	pending := models.TradeStatusPending
	offers, err := f.engine.ListOffers(ctx, models.TradeFilter{ReceiverID: &f.receiver, Status: &pending})
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, second.ID, offers[0].ID)
}

func TestListOffersInvolvingUser(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	outgoing := f.createOffer(t)

	incoming, err := f.engine.CreateOffer(ctx, f.receiver, trade.CreateOfferInput{
		SenderListingID:   f.receiverListing,
		ReceiverListingID: f.senderListing,
	})
	require.NoError(t, err)

	offers, err := f.engine.ListOffersInvolvingUser(ctx, f.sender, nil)
	require.NoError(t, err)
	require.Len(t, offers, 2, "both roles count as involvement")
	assert.Equal(t, outgoing.ID, offers[0].ID)
	assert.Equal(t, incoming.ID, offers[1].ID)

	pending := models.TradeStatusPending
	offers, err = f.engine.ListOffersInvolvingUser(ctx, f.sender, &pending)
	require.NoError(t, err)
	assert.Len(t, offers, 2)
}
