package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
)

type recordingDeleter struct {
	names []string
	fail  map[string]bool
}

func (r *recordingDeleter) Delete(_ context.Context, fileName string) error {
	if r.fail[fileName] {
		return errors.New("issuer returned 500")
	}
	r.names = append(r.names, fileName)
	return nil
}

func TestDeleteImagesSkipsForeignAndDuplicates(t *testing.T) {
	d := &recordingDeleter{fail: map[string]bool{"img_artigos/bad.png": true}}
	a := NewImageAdapter(d, logger.Nop())

	n := a.DeleteImages(context.Background(), []string{
		"https://storage.googleapis.com/bucket/img_artigos/a.png",
		"https://storage.googleapis.com/bucket/img_artigos/a.png",
		"https://example.com/cat.png",
		"https://storage.googleapis.com/bucket/img_artigos/bad.png",
		"https://storage.googleapis.com/bucket/img_velonews/b.webp",
		"img_velonews/b.webp",
		"img_velonews/c.gif",
	})

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"img_artigos/a.png", "img_velonews/b.webp", "img_velonews/c.gif"}, d.names)
}

func TestDeleteImageRejectsForeignURL(t *testing.T) {
	a := NewImageAdapter(&recordingDeleter{}, logger.Nop())
	assert.Error(t, a.DeleteImage(context.Background(), "https://example.com/cat.png"))
}
