package main

import (
	"context"
	"log"
	"net/http"

	webAdapter "ordersheet/internal/adapters/web"
	"ordersheet/internal/app"
	"ordersheet/internal/config"
	"ordersheet/internal/images"
	"ordersheet/internal/sheetstore"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	client, err := sheetstore.NewGoogleClient(ctx, cfg.GoogleClientEmail, cfg.GooglePrivateKey, cfg.SpreadsheetID)
	if err != nil {
		log.Fatalf("sheets: %v", err)
	}

	uploader := images.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)

	svc := app.New(client, uploader)
	handler := webAdapter.NewHandler(svc, cfg.AllowedOrigins, cfg.JWTSecret, cfg.JWTExpiresIn)

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := http.ListenAndServe(":"+cfg.ServerPort, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
