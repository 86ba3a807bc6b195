package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
)

// Memory is a Store kept entirely in process memory. It mirrors the Postgres
// semantics (lookup errors, ordering, the favorites cascade) closely enough
// to stand in for it in tests and local runs without a database.
type Memory struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]models.User
	listings  map[uuid.UUID]models.Listing
	trades    []models.Trade
	favorites []models.Favorite

	// listingOrder preserves insertion order for catalog queries, newest last.
	listingOrder []uuid.UUID
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]models.User),
		listings: make(map[uuid.UUID]models.Listing),
	}
}

// --- users ---

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return ErrAlreadyExists
		}
		if user.TelegramID != nil && u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
			return ErrAlreadyExists
		}
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUserProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.AvatarURL = user.AvatarURL
	m.users[user.ID] = stored
	return nil
}

// --- listings ---

func (m *Memory) CreateListing(ctx context.Context, listing *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing.CreatedAt = time.Now()
	m.listings[listing.ID] = *listing
	m.listingOrder = append(m.listingOrder, listing.ID)
	return nil
}

func (m *Memory) GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listing, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &listing, nil
}

func (m *Memory) ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListingLimit
	}
	if limit > maxListingLimit {
		limit = maxListingLimit
	}

	var out []models.Listing
	// Newest first, same as the SQL ORDER BY created_at DESC.
	for i := len(m.listingOrder) - 1; i >= 0 && len(out) < limit; i-- {
		l, ok := m.listings[m.listingOrder[i]]
		if !ok {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.Condition != nil && l.Condition != *filter.Condition {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(l.Title), needle) &&
				!strings.Contains(strings.ToLower(l.Description), needle) {
				continue
			}
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *Memory) GetListingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Listing
	for i := len(m.listingOrder) - 1; i >= 0; i-- {
		if l, ok := m.listings[m.listingOrder[i]]; ok && l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) UpdateListing(ctx context.Context, listing *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.listings[listing.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = listing.Title
	stored.Description = listing.Description
	stored.ImageURL = listing.ImageURL
	stored.Category = listing.Category
	stored.Condition = listing.Condition
	m.listings[listing.ID] = stored
	return nil
}

func (m *Memory) DeleteListing(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listings[id]; !ok {
		return ErrNotFound
	}
	delete(m.listings, id)

	// Same effect as the favorites listing_id FK with ON DELETE CASCADE.
	kept := m.favorites[:0]
	for _, f := range m.favorites {
		if f.ListingID != id {
			kept = append(kept, f)
		}
	}
	m.favorites = kept
	return nil
}

// --- trades ---

func (m *Memory) CreateTrade(ctx context.Context, trade *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade.CreatedAt = time.Now()
	m.trades = append(m.trades, *trade)
	return nil
}

func (m *Memory) GetTradeByID(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.trades {
		if t.ID == id {
			trade := t
			return &trade, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateTradeStatus(ctx context.Context, id uuid.UUID, status models.TradeStatus) (*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.trades {
		if m.trades[i].ID == id {
			m.trades[i].Status = status
			trade := m.trades[i]
			return &trade, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListTrades(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Trade
	for _, t := range m.trades {
		switch {
		case filter.SenderID != nil && filter.ReceiverID != nil:
			if t.SenderID != *filter.SenderID && t.ReceiverID != *filter.ReceiverID {
				continue
			}
		case filter.SenderID != nil:
			if t.SenderID != *filter.SenderID {
				continue
			}
		case filter.ReceiverID != nil:
			if t.ReceiverID != *filter.ReceiverID {
				continue
			}
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// --- favorites ---

func (m *Memory) AddFavorite(ctx context.Context, favorite *models.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.favorites {
		if f.UserID == favorite.UserID && f.ListingID == favorite.ListingID {
			return ErrAlreadyExists
		}
	}
	favorite.CreatedAt = time.Now()
	stored := *favorite
	stored.Listing = nil
	m.favorites = append(m.favorites, stored)
	return nil
}

func (m *Memory) RemoveFavorite(ctx context.Context, userID, listingID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, f := range m.favorites {
		if f.UserID == userID && f.ListingID == listingID {
			m.favorites = append(m.favorites[:i], m.favorites[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Favorite
	// Newest first, matching the SQL ordering.
	for i := len(m.favorites) - 1; i >= 0; i-- {
		f := m.favorites[i]
		if f.UserID != userID {
			continue
		}
		if l, ok := m.listings[f.ListingID]; ok {
			listing := l
			f.Listing = &listing
		}
		out = append(out, f)
	}
	return out, nil
}
