package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/domain"
)

type blobRepository struct {
	client    *azblob.Client
	container string
	log       *logger.Logger
}

func NewBlobRepository(client *azblob.Client, container string, log *logger.Logger) domain.UploadRepository {
	return &blobRepository{client: client, container: container, log: log}
}

// EnsureContainer creates the container with public blob access if it does not exist.
func EnsureContainer(ctx context.Context, client *azblob.Client, container string, log *logger.Logger) error {
	_, err := client.CreateContainer(ctx, container, &azblob.CreateContainerOptions{
		Access: to.Ptr(azblob.PublicAccessTypeBlob),
	})
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.ErrorCode == string(bloberror.ContainerAlreadyExists) {
		log.Info("Container already exists, skipping creation.")
		return nil
	}
	return err
}

func (r *blobRepository) Bucket() string {
	return r.container
}

// PublicURL is the unsigned blob URL, readable because the container allows public blob access.
func (r *blobRepository) PublicURL(objectName string) string {
	return r.client.ServiceClient().NewContainerClient(r.container).NewBlobClient(objectName).URL()
}

// SignedPutURL returns a SAS URL allowing one object to be created or overwritten until ttl elapses.
func (r *blobRepository) SignedPutURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("azure blob client is nil")
	}
	blobClient := r.client.ServiceClient().NewContainerClient(r.container).NewBlockBlobClient(objectName)
	url, err := blobClient.GetSASURL(sas.BlobPermissions{Create: true, Write: true}, time.Now().UTC().Add(ttl), nil)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", objectName, err)
	}
	return url, nil
}

func (r *blobRepository) DeleteObject(ctx context.Context, objectName string) error {
	if r.client == nil {
		return fmt.Errorf("azure blob client is nil")
	}
	_, err := r.client.DeleteBlob(ctx, r.container, objectName, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return domain.ErrImageNotFound
	}
	return err
}
