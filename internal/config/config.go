package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds everything the process reads from its environment.
type Config struct {
	// Google Sheets service account.
	GoogleClientEmail string
	GooglePrivateKey  string
	SpreadsheetID     string

	// Cloudinary media host.
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// Auth token signing.
	JWTSecret    string
	JWTExpiresIn time.Duration

	ServerPort     string
	AllowedOrigins string
}

// Load reads configuration from the process environment. The spreadsheet ID
// is mandatory: without it every read would silently address nothing, so we
// fail fast instead.
func Load() (*Config, error) {
	cfg := &Config{
		GoogleClientEmail:   os.Getenv("GOOGLE_CLIENT_EMAIL"),
		GooglePrivateKey:    strings.ReplaceAll(os.Getenv("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),
		SpreadsheetID:       os.Getenv("GOOGLE_SHEET_ID"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTExpiresIn:        30 * 24 * time.Hour,
		ServerPort:          os.Getenv("SERVER_PORT"),
		AllowedOrigins:      os.Getenv("ALLOWED_ORIGINS"),
	}

	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_ID environment variable not set")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "your-secret-key-change-this-in-production"
	}
	if raw := os.Getenv("JWT_EXPIRES_IN"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", raw, err)
		}
		cfg.JWTExpiresIn = d
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	return cfg, nil
}
