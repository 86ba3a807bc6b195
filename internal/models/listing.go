package models

import (
	"time"

	"github.com/google/uuid"
)

// Condition describes the wear state of a listed item.
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	return c == ConditionNew || c == ConditionUsed
}

// Listing represents an item a user has put up for exchange.
type Listing struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    *string   `json:"image_url"`
	Category    string    `json:"category"`
	Condition   Condition `json:"condition"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListingFilter narrows a catalog query. Zero values mean "no constraint";
// Limit is clamped by the storage layer.
type ListingFilter struct {
	Category  string
	Condition *Condition
	Search    string
	Limit     int
}
