package main

import (
	"context"
	"log"
	"time"

	"pdfmark/internal/config"
	"pdfmark/internal/database"
	"pdfmark/internal/repository"
)

// Revoked tokens are kept this long so reuse detection still sees them.
const revokedRetention = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	removed, err := repository.NewRefreshTokenRepository(db).DeleteStale(ctx, now, now.Add(-revokedRetention))
	if err != nil {
		log.Fatalf("cleanup refresh_tokens failed: %v", err)
	}

	log.Printf("auth cleanup completed: refresh_tokens=%d", removed)
}
