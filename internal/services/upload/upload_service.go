package upload

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Evgeniy-Kn/sharing-things-api/internal/config"
	"github.com/Evgeniy-Kn/sharing-things-api/internal/utils"
)

// UploadService issues signed parameters for direct-to-Cloudinary uploads,
// so image bytes never pass through this API.
type UploadService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewUploadService creates an UploadService.
func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GenerateUploadParams handles GET /uploads/params. The client uploads
// straight to Cloudinary with these values and then stores the resulting
// URL on its listing.
func (s *UploadService) GenerateUploadParams(c fiber.Ctx) error {
	if !s.cfg.CloudinaryConfig.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "uploads are not configured"})
	}

	// A fresh id lets the client tag images for a listing it has not
	// created yet.
	listingID := c.Query("listing_id")
	if listingID == "" {
		listingID = uuid.New().String()
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	params := url.Values{}
	params.Set("timestamp", timestamp)
	params.Set("upload_preset", s.cfg.CloudinaryConfig.UploadPreset)

	signature, err := api.SignParameters(params, s.cfg.CloudinaryConfig.APISecret)
	if err != nil {
		log.Printf("sign upload params: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to sign upload parameters"})
	}

	return c.JSON(fiber.Map{
		"timestamp":     timestamp,
		"signature":     signature,
		"api_key":       s.cfg.CloudinaryConfig.APIKey,
		"cloud_name":    s.cfg.CloudinaryConfig.CloudName,
		"upload_preset": s.cfg.CloudinaryConfig.UploadPreset,
		"listing_id":    listingID,
	})
}
