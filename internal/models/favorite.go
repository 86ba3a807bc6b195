package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite marks a listing a user has bookmarked.
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ListingID uuid.UUID `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`

	// Populated on reads so clients get the listing without a second call.
	Listing *Listing `json:"listing,omitempty"`
}
