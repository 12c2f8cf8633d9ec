package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidFolder = errors.New("folder not allowed")
	ErrImageNotFound = errors.New("image not found")
)

// SignedUpload lets a client PUT one object directly into storage.
// object name -> {folder}/{uuid}{ext}
type SignedUpload struct {
	UploadURL string
	FileName  string
	Bucket    string
	ExpiresIn int
	Headers   map[string]string
	// PublicURL is where the object is readable once uploaded.
	PublicURL string
}

type UploadRequest struct {
	FileName string
	MimeType string
	FileSize int64
	Folder   string
}

type UploadRepository interface {
	SignedPutURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
	Bucket() string
}

type UploadService interface {
	GenerateUploadURL(ctx context.Context, req UploadRequest) (*SignedUpload, error)
	DeleteImage(ctx context.Context, objectName string) error
}
