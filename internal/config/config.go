package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port             string
	JWTSecret        string
	TelegramBotToken string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	AppEnv           string
}

// DatabaseConfig carries the individual Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CloudinaryConfig carries the credentials for signed direct uploads.
// All fields empty means the upload endpoint is disabled.
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// Enabled reports whether the Cloudinary credentials are fully configured.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// LoadConfig reads .env when present, then the process environment.
// JWT_SECRET is required; Telegram and Cloudinary settings are optional and
// their endpoints degrade to 503 when absent.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "sharing_user"),
		Password: getEnv("PGPASSWORD", "sharing_pass"),
		Name:     getEnv("PGDATABASE", "sharing_things"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "sharing_things"),
		},
		AppEnv: getEnv("APP_ENV", "production"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("TELEGRAM_BOT_TOKEN is not set, Telegram login is disabled")
	}
	if !cfg.CloudinaryConfig.Enabled() {
		log.Println("Cloudinary credentials are not set, upload signing is disabled")
	}

	return cfg
}

// getEnv returns the environment value for key, or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
