package adapter

import (
	"context"
	"fmt"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/media"
)

// ImageDeleter is the part of the upload client the adapter needs.
type ImageDeleter interface {
	Delete(ctx context.Context, fileName string) error
}

type imageAdapterImpl struct {
	deleter ImageDeleter
	log     *logger.Logger
}

func NewImageAdapter(deleter ImageDeleter, log *logger.Logger) ImageAdapter {
	return &imageAdapterImpl{deleter: deleter, log: log}
}

func (a *imageAdapterImpl) DeleteImage(ctx context.Context, image string) error {
	name, ok := media.ObjectName(image)
	if !ok {
		return fmt.Errorf("not a stored image: %s", image)
	}
	return a.deleter.Delete(ctx, name)
}

func (a *imageAdapterImpl) DeleteImages(ctx context.Context, images []string) int {
	deleted := 0
	seen := make(map[string]bool, len(images))
	for _, img := range images {
		name, ok := media.ObjectName(img)
		if !ok {
			// external or inline images are not ours to delete
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := a.deleter.Delete(ctx, name); err != nil {
			a.log.With("image", name).Warn("failed to delete article image: " + err.Error())
			continue
		}
		deleted++
	}
	return deleted
}
