package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/media"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/domain"
)

// blobTypeHeaders must accompany every PUT to an Azure block blob SAS URL.
var blobTypeHeaders = map[string]string{"x-ms-blob-type": "BlockBlob"}

var extByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type uploadService struct {
	repo  domain.UploadRepository
	ttl   time.Duration
	log   *logger.Logger
	newID func() string
}

func NewUploadService(repo domain.UploadRepository, ttl time.Duration, log *logger.Logger) domain.UploadService {
	return &uploadService{repo: repo, ttl: ttl, log: log, newID: uuid.NewString}
}

func (s *uploadService) GenerateUploadURL(ctx context.Context, req domain.UploadRequest) (*domain.SignedUpload, error) {
	if err := imageupload.Validate(req.MimeType, req.FileSize); err != nil {
		return nil, err
	}
	folder := req.Folder
	if folder == "" {
		folder = media.DefaultFolder
	}
	if !media.KnownFolder(folder) {
		return nil, domain.ErrInvalidFolder
	}

	objectName := folder + "/" + s.newID() + extension(req.FileName, req.MimeType)
	url, err := s.repo.SignedPutURL(ctx, objectName, s.ttl)
	if err != nil {
		return nil, err
	}
	s.log.With("object", objectName).Debug("issued signed upload url")
	return &domain.SignedUpload{
		UploadURL: url,
		FileName:  objectName,
		Bucket:    s.repo.Bucket(),
		ExpiresIn: int(s.ttl.Seconds()),
		Headers:   blobTypeHeaders,
		PublicURL: s.repo.PublicURL(objectName),
	}, nil
}

func (s *uploadService) DeleteImage(ctx context.Context, objectName string) error {
	objectName = strings.TrimPrefix(path.Clean("/"+objectName), "/")
	folder, _, ok := strings.Cut(objectName, "/")
	if !ok || !media.KnownFolder(folder) {
		return domain.ErrInvalidFolder
	}
	if err := s.repo.DeleteObject(ctx, objectName); err != nil {
		return fmt.Errorf("delete %s: %w", objectName, err)
	}
	return nil
}

func extension(fileName, mimeType string) string {
	ext := strings.ToLower(path.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}
	return extByMime[strings.ToLower(mimeType)]
}
