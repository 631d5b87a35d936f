package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pdfmark/internal/domain"
)

const localScheme = "local://"

// LocalStore keeps blobs on disk under a base directory.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "./blobs"
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{baseDir: abs}, nil
}

func (s *LocalStore) Store(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.Storage(err, "store cancelled")
	}

	key := ObjectKey(suggestedName)
	absPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", domain.Storage(err, "failed to create blob directory")
	}

	// Write then rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".upload-*")
	if err != nil {
		return "", domain.Storage(err, "failed to create blob")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", domain.Storage(err, "failed to write blob")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", domain.Storage(err, "failed to write blob")
	}
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		_ = os.Remove(tmp.Name())
		return "", domain.Storage(err, "failed to write blob")
	}

	return localScheme + key, nil
}

func (s *LocalStore) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Storage(err, "fetch cancelled")
	}

	key, ok := strings.CutPrefix(location, localScheme)
	if !ok || key == "" {
		return nil, domain.Storage(nil, "not a local blob location: %q", location)
	}
	clean := path.Clean("/" + key)[1:]
	if clean != key || strings.HasPrefix(clean, "../") {
		return nil, domain.Storage(nil, "invalid blob key %q", key)
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, filepath.FromSlash(clean)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Storage(err, "blob %q not found", key)
		}
		return nil, domain.Storage(err, "failed to read blob")
	}
	return data, nil
}
