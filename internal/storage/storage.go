package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
)

// Lookup errors shared by every implementation. Callers branch on these with
// errors.Is instead of inspecting driver errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// UserStore persists accounts.
type UserStore interface {
	// CreateUser inserts user and fills its CreatedAt. Returns
	// ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	// UpdateUserProfile refreshes the mutable profile fields (first name,
	// last name, avatar) of an existing user.
	UpdateUserProfile(ctx context.Context, user *models.User) error
}

// ListingStore persists the item catalog.
type ListingStore interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	// GetListingsByUser returns all of a user's listings, newest first,
	// without the catalog limit.
	GetListingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Listing, error)
	UpdateListing(ctx context.Context, listing *models.Listing) error
	DeleteListing(ctx context.Context, id uuid.UUID) error
}

// TradeStore persists exchange offers.
type TradeStore interface {
	CreateTrade(ctx context.Context, trade *models.Trade) error
	GetTradeByID(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	// UpdateTradeStatus overwrites the status unconditionally and returns
	// ErrNotFound when no such trade exists.
	UpdateTradeStatus(ctx context.Context, id uuid.UUID, status models.TradeStatus) (*models.Trade, error)
	// ListTrades returns trades matching filter in creation order.
	ListTrades(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error)
}

// FavoriteStore persists per-user bookmarks.
type FavoriteStore interface {
	// AddFavorite returns ErrAlreadyExists when the user already bookmarked
	// the listing.
	AddFavorite(ctx context.Context, favorite *models.Favorite) error
	RemoveFavorite(ctx context.Context, userID, listingID uuid.UUID) error
	// ListFavorites returns the user's bookmarks with each Listing populated.
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
}

// Store bundles everything the API persists. Services receive this interface
// so tests can swap the Postgres implementation for the in-memory one.
type Store interface {
	UserStore
	ListingStore
	TradeStore
	FavoriteStore
}
