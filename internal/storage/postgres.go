package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
)

const (
	defaultListingLimit = 10
	maxListingLimit     = 20
)

// Postgres implements Store on top of a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an already connected pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- users ---

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, first_name, last_name, avatar_url, telegram_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, user.ID, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.AvatarURL, user.TelegramID).
		Scan(&user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return p.getUser(ctx, `WHERE id = $1`, id)
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return p.getUser(ctx, `WHERE username = $1`, username)
}

func (p *Postgres) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return p.getUser(ctx, `WHERE telegram_id = $1`, telegramID)
}

func (p *Postgres) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var user models.User
	err := p.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, first_name, last_name, avatar_url, telegram_id, created_at
		FROM users `+where,
		arg).Scan(
		&user.ID, &user.Username, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.AvatarURL,
		&user.TelegramID, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

func (p *Postgres) UpdateUserProfile(ctx context.Context, user *models.User) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE users SET first_name = $1, last_name = $2, avatar_url = $3
		WHERE id = $4
	`, user.FirstName, user.LastName, user.AvatarURL, user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- listings ---

func (p *Postgres) CreateListing(ctx context.Context, listing *models.Listing) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO listings (id, user_id, title, description, image_url, category, condition)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, listing.ID, listing.UserID, listing.Title, listing.Description,
		listing.ImageURL, listing.Category, listing.Condition).
		Scan(&listing.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (p *Postgres) GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := p.pool.QueryRow(ctx, `
		SELECT id, user_id, title, description, image_url, category, condition, created_at
		FROM listings WHERE id = $1
	`, id).Scan(
		&listing.ID, &listing.UserID, &listing.Title, &listing.Description,
		&listing.ImageURL, &listing.Category, &listing.Condition, &listing.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select listing: %w", err)
	}
	return &listing, nil
}

func (p *Postgres) ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	query := `
		SELECT id, user_id, title, description, image_url, category, condition, created_at
		FROM listings`

	var conds []string
	var args []any

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Condition != nil {
		args = append(args, *filter.Condition)
		conds = append(conds, fmt.Sprintf("condition = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListingLimit
	}
	if limit > maxListingLimit {
		limit = maxListingLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Title, &l.Description,
			&l.ImageURL, &l.Category, &l.Condition, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (p *Postgres) GetListingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Listing, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, user_id, title, description, image_url, category, condition, created_at
		FROM listings WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select user listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Title, &l.Description,
			&l.ImageURL, &l.Category, &l.Condition, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (p *Postgres) UpdateListing(ctx context.Context, listing *models.Listing) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE listings
		SET title = $1, description = $2, image_url = $3, category = $4, condition = $5
		WHERE id = $6
	`, listing.Title, listing.Description, listing.ImageURL,
		listing.Category, listing.Condition, listing.ID)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteListing(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- trades ---

const tradeColumns = `id, sender_id, receiver_id, sender_listing_id, receiver_listing_id, comment, status, created_at`

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(
		&t.ID, &t.SenderID, &t.ReceiverID,
		&t.SenderListingID, &t.ReceiverListingID,
		&t.Comment, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) CreateTrade(ctx context.Context, trade *models.Trade) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO trades (id, sender_id, receiver_id, sender_listing_id, receiver_listing_id, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, trade.ID, trade.SenderID, trade.ReceiverID,
		trade.SenderListingID, trade.ReceiverListingID,
		trade.Comment, trade.Status).
		Scan(&trade.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) GetTradeByID(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	trade, err := scanTrade(p.pool.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select trade: %w", err)
	}
	return trade, nil
}

func (p *Postgres) UpdateTradeStatus(ctx context.Context, id uuid.UUID, status models.TradeStatus) (*models.Trade, error) {
	trade, err := scanTrade(p.pool.QueryRow(ctx, `
		UPDATE trades SET status = $1 WHERE id = $2
		RETURNING `+tradeColumns,
		status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update trade status: %w", err)
	}
	return trade, nil
}

func (p *Postgres) ListTrades(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades`

	var conds []string
	var args []any

	// A user can sit on either side of an offer, so when both role filters
	// are present they widen the match instead of narrowing it.
	switch {
	case filter.SenderID != nil && filter.ReceiverID != nil:
		args = append(args, *filter.SenderID, *filter.ReceiverID)
		conds = append(conds, fmt.Sprintf("(sender_id = $%d OR receiver_id = $%d)", len(args)-1, len(args)))
	case filter.SenderID != nil:
		args = append(args, *filter.SenderID)
		conds = append(conds, fmt.Sprintf("sender_id = $%d", len(args)))
	case filter.ReceiverID != nil:
		args = append(args, *filter.ReceiverID)
		conds = append(conds, fmt.Sprintf("receiver_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	return trades, rows.Err()
}

// --- favorites ---

func (p *Postgres) AddFavorite(ctx context.Context, favorite *models.Favorite) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO favorites (id, user_id, listing_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, favorite.ID, favorite.UserID, favorite.ListingID).
		Scan(&favorite.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (p *Postgres) RemoveFavorite(ctx context.Context, userID, listingID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2
	`, userID, listingID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT f.id, f.user_id, f.listing_id, f.created_at,
		       l.id, l.user_id, l.title, l.description, l.image_url, l.category, l.condition, l.created_at
		FROM favorites f
		JOIN listings l ON l.id = f.listing_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select favorites: %w", err)
	}
	defer rows.Close()

	var favorites []models.Favorite
	for rows.Next() {
		var f models.Favorite
		var l models.Listing
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.ListingID, &f.CreatedAt,
			&l.ID, &l.UserID, &l.Title, &l.Description,
			&l.ImageURL, &l.Category, &l.Condition, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		f.Listing = &l
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}
