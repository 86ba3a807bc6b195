package auth_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/config"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/models"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/services/auth"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/storage"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/utils"
)

const (
	testSecret   = "test-secret"
	testBotToken = "7000000001:test-bot-token"
)

func newAuthApp(t *testing.T) (*fiber.App, *storage.Memory) {
	t.Helper()

	store := storage.NewMemory()
	cfg := &config.Config{JWTSecret: testSecret, TelegramBotToken: testBotToken}

	app := fiber.New()
	auth.NewAuthService(cfg, store).SetupRoutes(app)
	return app, store
}

func doRequest(t *testing.T, app *fiber.App, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, resp, &body)
	return body["error"]
}

func register(t *testing.T, app *fiber.App, username, password string) *http.Response {
	t.Helper()
	return doRequest(t, app, http.MethodPost, "/auth/register", "",
		fiber.Map{"username": username, "password": password})
}

func login(t *testing.T, app *fiber.App, username, password string) *http.Response {
	t.Helper()
	return doRequest(t, app, http.MethodPost, "/auth/login", "",
		fiber.Map{"username": username, "password": password})
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

func TestRegisterAndLogin(t *testing.T) {
	app, store := newAuthApp(t)

	resp := register(t, app, "kate", "hunter22")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]string
	decodeBody(t, resp, &created)
	assert.Equal(t, "user registered", created["message"])

	stored, err := store.GetUserByUsername(context.Background(), "kate")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", stored.PasswordHash, "passwords are stored hashed")

	resp = login(t, app, "kate", "hunter22")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)

	userID, err := utils.NewJWTService(testSecret).ExtractUserID(body.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, userID)
}

func TestRegisterValidation(t *testing.T) {
	app, _ := newAuthApp(t)

	resp := register(t, app, "kate", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "username and password are required", errorMessage(t, resp))

	resp = register(t, app, "kate", "hunter22")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = register(t, app, "kate", "different")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "username already taken", errorMessage(t, resp))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app, _ := newAuthApp(t)

	resp := register(t, app, "kate", "hunter22")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = login(t, app, "kate", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "incorrect username or password", errorMessage(t, resp))

	resp = login(t, app, "nobody", "hunter22")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "incorrect username or password", errorMessage(t, resp),
		"unknown users get the same answer as bad passwords")
}

func TestMe(t *testing.T) {
	app, store := newAuthApp(t)

	resp := register(t, app, "kate", "hunter22")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	stored, err := store.GetUserByUsername(context.Background(), "kate")
	require.NoError(t, err)
	token, err := utils.NewJWTService(testSecret).GenerateToken(stored.ID)
	require.NoError(t, err)

	resp = doRequest(t, app, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me models.User
	decodeBody(t, resp, &me)
	assert.Equal(t, stored.ID, me.ID)
	assert.Equal(t, "kate", me.Username)

	resp = doRequest(t, app, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ghostToken, err := utils.NewJWTService(testSecret).GenerateToken(uuid.New())
	require.NoError(t, err)
	resp = doRequest(t, app, http.MethodGet, "/auth/me", ghostToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "user not found", errorMessage(t, resp))
}

// signInitData signs params the way Telegram clients do, so the init data
// validation accepts the result.
func signInitData(params url.Values, botToken string) string {
	pairs := make([]string, 0, len(params))
	for key, values := range params {
		pairs = append(pairs, key+"="+values[0])
	}
	sort.Strings(pairs)

	keyMAC := hmac.New(sha256.New, []byte("WebAppData"))
	keyMAC.Write([]byte(botToken))

	mac := hmac.New(sha256.New, keyMAC.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	params.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return params.Encode()
}

func telegramInitData(t *testing.T, botToken string, tgUser map[string]any) string {
	t.Helper()

	raw, err := json.Marshal(tgUser)
	require.NoError(t, err)

	params := url.Values{}
	params.Set("user", string(raw))
	params.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	params.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	return signInitData(params, botToken)
}

func TestTelegramLogin(t *testing.T) {
	app, store := newAuthApp(t)

	initData := telegramInitData(t, testBotToken, map[string]any{
		"id":         int64(99887766),
		"first_name": "Kate",
		"username":   "kate_tg",
		"photo_url":  "https://t.me/i/userpic/320/kate.jpg",
	})

	resp := doRequest(t, app, http.MethodPost, "/auth/telegram", "", fiber.Map{"init_data": initData})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenResponse
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.AccessToken)
	assert.Equal(t, "kate_tg", body.User.Username)
	assert.Equal(t, "Kate", body.User.FirstName)
	require.NotNil(t, body.User.TelegramID)
	assert.Equal(t, int64(99887766), *body.User.TelegramID)

	// A second login with fresh profile data updates the same account.
	initData = telegramInitData(t, testBotToken, map[string]any{
		"id":         int64(99887766),
		"first_name": "Katherine",
		"username":   "kate_tg",
	})

	resp = doRequest(t, app, http.MethodPost, "/auth/telegram", "", fiber.Map{"init_data": initData})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var again tokenResponse
	decodeBody(t, resp, &again)
	assert.Equal(t, body.User.ID, again.User.ID)
	assert.Equal(t, "Katherine", again.User.FirstName)

	stored, err := store.GetUserByTelegramID(context.Background(), 99887766)
	require.NoError(t, err)
	assert.Equal(t, "Katherine", stored.FirstName)
}

func TestTelegramLoginUsernameTaken(t *testing.T) {
	app, _ := newAuthApp(t)

	resp := register(t, app, "kate_tg", "hunter22")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	initData := telegramInitData(t, testBotToken, map[string]any{
		"id":         int64(99887766),
		"first_name": "Kate",
		"username":   "kate_tg",
	})

	resp = doRequest(t, app, http.MethodPost, "/auth/telegram", "", fiber.Map{"init_data": initData})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "tg_99887766", body.User.Username,
		"a taken username falls back to the telegram id form")
}

func TestTelegramLoginRejectsBadSignature(t *testing.T) {
	app, _ := newAuthApp(t)

	initData := telegramInitData(t, "wrong-bot-token", map[string]any{
		"id":         int64(99887766),
		"first_name": "Kate",
		"username":   "kate_tg",
	})

	resp := doRequest(t, app, http.MethodPost, "/auth/telegram", "", fiber.Map{"init_data": initData})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid telegram data", errorMessage(t, resp))
}

func TestTelegramLoginNotConfigured(t *testing.T) {
	store := storage.NewMemory()
	cfg := &config.Config{JWTSecret: testSecret}

	app := fiber.New()
	auth.NewAuthService(cfg, store).SetupRoutes(app)

	resp := doRequest(t, app, http.MethodPost, "/auth/telegram", "", fiber.Map{"init_data": "whatever"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "telegram login is not configured", errorMessage(t, resp))
}
