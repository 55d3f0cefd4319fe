// Package media issues presigned upload URLs for catalog and service images.
package media

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// ObjectStorage is the part of the object store the upload flow needs
type ObjectStorage interface {
	// GenerateUploadURL returns a presigned PUT URL and its expiry
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	// PublicURL returns the URL the stored object is served from
	PublicURL(storageKey string) string
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadRequest asks for a place to put an image
type UploadRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=products services"`
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// UploadResponse tells the client where to PUT the file and where it will be served from
type UploadResponse struct {
	UploadURL  string    `json:"upload_url"`
	Method     string    `json:"method"`
	PublicURL  string    `json:"public_url"`
	StorageKey string    `json:"storage_key"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// UploadService issues image upload tickets
type UploadService struct {
	storage   ObjectStorage
	expiresIn time.Duration
}

// NewUploadService creates a new UploadService
func NewUploadService(storage ObjectStorage, expiresIn time.Duration) *UploadService {
	return &UploadService{storage: storage, expiresIn: expiresIn}
}

// RequestUpload validates the content type and presigns a unique key
func (s *UploadService) RequestUpload(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_INPUT", "Only JPEG, PNG, WebP and GIF images can be uploaded")
	}

	key := path.Join(req.Kind, time.Now().UTC().Format("2006/01"), uuid.New().String()+ext)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.expiresIn)
	if err != nil {
		return nil, err
	}

	return &UploadResponse{
		UploadURL:  uploadURL,
		Method:     "PUT",
		PublicURL:  s.storage.PublicURL(key),
		StorageKey: key,
		ExpiresAt:  expiresAt,
	}, nil
}
