package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Accounts created through Telegram
// Mini Apps carry a TelegramID and an empty password hash; password accounts
// leave TelegramID nil.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	TelegramID   *int64    `json:"telegram_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
