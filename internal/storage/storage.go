// Package storage puts PDF bytes somewhere durable and hands back a location
// string that can be fetched later. Locations are opaque to callers.
package storage

import (
	"context"
	"fmt"

	"pdfmark/internal/config"
)

// Store is a blob store. Every error it returns has domain kind Storage.
type Store interface {
	Store(ctx context.Context, data []byte, suggestedName string) (string, error)
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Backend {
	case config.BlobLocal, "":
		return NewLocalStore(cfg.LocalDir)
	case config.BlobHTTP:
		return NewHTTPStore(cfg.BaseURL, cfg.Token, nil), nil
	case config.BlobS3:
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}
