package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeStatus is the lifecycle state of a trade offer.
type TradeStatus string

const (
	TradeStatusPending  TradeStatus = "pending"
	TradeStatusAccepted TradeStatus = "accepted"
	TradeStatusRejected TradeStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusPending, TradeStatusAccepted, TradeStatusRejected:
		return true
	}
	return false
}

// Trade represents an exchange offer between two users. The receiver is
// always the owner of the receiver listing at the time the offer was made,
// never a value supplied by the sender.
type Trade struct {
	ID                uuid.UUID   `json:"id"`
	SenderID          uuid.UUID   `json:"sender_id"`
	ReceiverID        uuid.UUID   `json:"receiver_id"`
	SenderListingID   uuid.UUID   `json:"sender_listing_id"`
	ReceiverListingID uuid.UUID   `json:"receiver_listing_id"`
	Comment           string      `json:"comment"`
	Status            TradeStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
}

// TradeFilter narrows a trade query. When both SenderID and ReceiverID are
// set, an offer matches if EITHER column matches its id, so the same user can
// be found in both roles with one call. Status always narrows with AND.
type TradeFilter struct {
	SenderID   *uuid.UUID
	ReceiverID *uuid.UUID
	Status     *TradeStatus
}
