package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stephanos-estetic/backend/internal/application/media"
)

// StubObjectStorage hands out fake URLs when object storage is disabled.
// Uploads to its URLs go nowhere.
type StubObjectStorage struct {
	BaseURL string
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/static"
	}
	return &StubObjectStorage{BaseURL: strings.TrimRight(baseURL, "/")}
}

var _ media.ObjectStorage = (*StubObjectStorage)(nil)

// GenerateUploadURL returns a stub upload URL
func (s *StubObjectStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/upload/" + storageKey + "?expires=" + expiresAt.UTC().Format(time.RFC3339), expiresAt, nil
}

// PublicURL returns the stub public URL
func (s *StubObjectStorage) PublicURL(storageKey string) string {
	return s.BaseURL + "/" + strings.TrimLeft(storageKey, "/")
}
