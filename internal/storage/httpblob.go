package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pdfmark/internal/domain"
)

// HTTPStore uploads with a bearer-authenticated PUT, the way hosted blob
// services such as Vercel Blob accept writes. Each call is a single request.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPStore(baseURL, token string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

type putResponse struct {
	URL string `json:"url"`
}

func (s *HTTPStore) Store(ctx context.Context, data []byte, suggestedName string) (string, error) {
	uploadURL := s.baseURL + "/" + ObjectKey(suggestedName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", domain.Storage(err, "failed to build blob request")
	}
	req.Header.Set("Content-Type", "application/pdf")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.Storage(err, "blob upload failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", domain.Storage(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "blob upload failed")
	}

	// A body that is not JSON, or has no url, means the blob lives where we put it.
	var out putResponse
	if err := json.Unmarshal(body, &out); err == nil && out.URL != "" {
		return out.URL, nil
	}
	return uploadURL, nil
}

func (s *HTTPStore) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return nil, domain.Storage(nil, "not an http blob location: %q", location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, domain.Storage(err, "failed to build blob request")
	}
	if s.token != "" && strings.HasPrefix(location, s.baseURL+"/") {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.Storage(err, "blob fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Storage(fmt.Errorf("status %d", resp.StatusCode), "blob fetch failed")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Storage(err, "blob fetch failed")
	}
	return data, nil
}
