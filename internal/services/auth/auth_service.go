package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/auth"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/config"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/db"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/storage"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/utils"
)

// AuthService handles registration and both login flows: username/password
// and Telegram Mini App init data.
type AuthService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	store      storage.UserStore
}

// NewAuthService creates an AuthService backed by store.
func NewAuthService(cfg *config.Config, store storage.UserStore) *AuthService {
	return &AuthService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		store:      store,
	}
}

// RegisterHandler creates a password account.
func (s *AuthService) RegisterHandler(c fiber.Ctx) error {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.Username == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username and password are required"})
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		log.Printf("hash password: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to process password"})
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     payload.Username,
		PasswordHash: hash,
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username already taken"})
		}
		log.Printf("create user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create user"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "user registered"})
}

// LoginHandler exchanges username/password for an access token.
func (s *AuthService) LoginHandler(c fiber.Ctx) error {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.Username == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username and password are required"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.store.GetUserByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "incorrect username or password"})
		}
		log.Printf("get user by username: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load user"})
	}

	if !auth.CheckPassword(payload.Password, user.PasswordHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "incorrect username or password"})
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("generate token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// TelegramAuthHandler validates Telegram Mini App init data and signs the
// matching local account in, creating it on first contact.
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	if s.cfg.TelegramBotToken == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "telegram login is not configured"})
	}

	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	expiration := 24 * time.Hour
	if err := initdata.Validate(payload.InitData, s.cfg.TelegramBotToken, expiration); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid telegram data"})
	}

	data, err := initdata.Parse(payload.InitData)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to parse init data"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.upsertTelegramUser(ctx, data.User)
	if err != nil {
		log.Printf("upsert telegram user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to sign in"})
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("generate token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// MeHandler returns the authenticated user's own record.
func (s *AuthService) MeHandler(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		log.Printf("get user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load user"})
	}

	return c.JSON(user)
}

// upsertTelegramUser finds the account for a Telegram identity, refreshing
// its profile fields, or creates one. A brand-new account takes the Telegram
// username; when that name is already held by a password account it falls
// back to tg_<telegram id>.
func (s *AuthService) upsertTelegramUser(ctx context.Context, tgUser initdata.User) (*models.User, error) {
	user, err := s.store.GetUserByTelegramID(ctx, tgUser.ID)
	switch {
	case err == nil:
		user.FirstName = tgUser.FirstName
		user.LastName = tgUser.LastName
		user.AvatarURL = tgUser.PhotoURL
		if err := s.store.UpdateUserProfile(ctx, user); err != nil {
			return nil, err
		}
		return user, nil

	case errors.Is(err, storage.ErrNotFound):
		telegramID := tgUser.ID
		username := tgUser.Username
		if username == "" {
			username = fmt.Sprintf("tg_%d", telegramID)
		}

		user = &models.User{
			ID:         uuid.New(),
			Username:   username,
			FirstName:  tgUser.FirstName,
			LastName:   tgUser.LastName,
			AvatarURL:  tgUser.PhotoURL,
			TelegramID: &telegramID,
		}

		err = s.store.CreateUser(ctx, user)
		if errors.Is(err, storage.ErrAlreadyExists) {
			user.Username = fmt.Sprintf("tg_%d", telegramID)
			err = s.store.CreateUser(ctx, user)
		}
		if err != nil {
			return nil, err
		}
		return user, nil

	default:
		return nil, err
	}
}
