package adapter

import "context"

// ImageAdapter removes uploaded article images from object storage. Images
// are named by object name (img_velonews/x.png) or by public URL.
type ImageAdapter interface {
	DeleteImage(ctx context.Context, image string) error
	// DeleteImages removes each image best effort and returns how many were deleted.
	DeleteImages(ctx context.Context, images []string) int
}
