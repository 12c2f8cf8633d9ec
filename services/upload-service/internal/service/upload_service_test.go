package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/domain"
)

type fakeRepo struct {
	signed  []string
	deleted []string
	err     error
}

func (f *fakeRepo) SignedPutURL(_ context.Context, objectName string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.signed = append(f.signed, objectName)
	return "https://acct.blob.core.windows.net/images/" + objectName + "?sig=x", nil
}

func (f *fakeRepo) DeleteObject(_ context.Context, objectName string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, objectName)
	return nil
}

func (f *fakeRepo) PublicURL(objectName string) string {
	return "https://acct.blob.core.windows.net/images/" + objectName
}

func (f *fakeRepo) Bucket() string { return "images" }

func newTestService(repo domain.UploadRepository) *uploadService {
	s := NewUploadService(repo, 15*time.Minute, logger.Nop()).(*uploadService)
	s.newID = func() string { return "0b5e" }
	return s
}

func TestGenerateUploadURL(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestService(repo)

	signed, err := s.GenerateUploadURL(context.Background(), domain.UploadRequest{
		FileName: "Foto.JPEG", MimeType: "image/jpeg", FileSize: 1024, Folder: "img_artigos",
	})
	require.NoError(t, err)
	assert.Equal(t, "img_artigos/0b5e.jpeg", signed.FileName)
	assert.Equal(t, "images", signed.Bucket)
	assert.Equal(t, 900, signed.ExpiresIn)
	assert.Equal(t, "BlockBlob", signed.Headers["x-ms-blob-type"])
	assert.Contains(t, signed.UploadURL, "img_artigos/0b5e.jpeg")
	assert.Equal(t, "https://acct.blob.core.windows.net/images/img_artigos/0b5e.jpeg", signed.PublicURL)
}

func TestGenerateUploadURLDefaultsAndExtensions(t *testing.T) {
	s := newTestService(&fakeRepo{})

	signed, err := s.GenerateUploadURL(context.Background(), domain.UploadRequest{
		FileName: "clipboard", MimeType: "image/png", FileSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "img_velonews/0b5e.png", signed.FileName)
}

func TestGenerateUploadURLValidation(t *testing.T) {
	s := newTestService(&fakeRepo{})
	ctx := context.Background()

	_, err := s.GenerateUploadURL(ctx, domain.UploadRequest{FileName: "a.svg", MimeType: "image/svg+xml", FileSize: 1})
	assert.ErrorIs(t, err, imageupload.ErrUnsupportedType)

	_, err = s.GenerateUploadURL(ctx, domain.UploadRequest{FileName: "a.png", MimeType: "image/png", FileSize: imageupload.MaxFileSize + 1})
	assert.ErrorIs(t, err, imageupload.ErrFileTooLarge)

	_, err = s.GenerateUploadURL(ctx, domain.UploadRequest{FileName: "a.png", MimeType: "image/png", FileSize: 1, Folder: "private"})
	assert.ErrorIs(t, err, domain.ErrInvalidFolder)
}

func TestDeleteImage(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, s.DeleteImage(ctx, "img_velonews/a.png"))
	assert.Equal(t, []string{"img_velonews/a.png"}, repo.deleted)

	assert.ErrorIs(t, s.DeleteImage(ctx, "../secrets/a.png"), domain.ErrInvalidFolder)
	assert.ErrorIs(t, s.DeleteImage(ctx, "a.png"), domain.ErrInvalidFolder)

	repo.err = domain.ErrImageNotFound
	assert.ErrorIs(t, s.DeleteImage(ctx, "img_artigos/missing.png"), domain.ErrImageNotFound)

	repo.err = errors.New("boom")
	assert.Error(t, s.DeleteImage(ctx, "img_artigos/x.png"))
}
