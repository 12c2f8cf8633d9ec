package editor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
)

// FallbackNaturalWidth is assumed for images whose natural size is unknown.
const FallbackNaturalWidth = 800

// ResizeOptions are the percentages offered by the resize menu.
var ResizeOptions = []int{25, 50, 100, 150}

var (
	// ErrImageNotFound is returned when no image in the document has the given src.
	ErrImageNotFound = errors.New("image not found in document")
	ErrInvalidSize   = errors.New("resize percentage is not a menu option")
)

// Size is an image's intrinsic pixel size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Menu is what the resize popup shows for one image.
type Menu struct {
	Src     string `json:"src"`
	Current int    `json:"current"`
	Options []int  `json:"options"`
}

// Patch is the visual change applied by a resize, for the client to mirror
// in place before the serialized document catches up.
type Patch struct {
	Src   string `json:"src"`
	Width int    `json:"width"`
	Style string `json:"style"`
}

// SnapPercentage returns the resize option nearest to percent. Ties go to
// the smaller option.
func SnapPercentage(percent float64) int {
	best := ResizeOptions[0]
	for _, o := range ResizeOptions[1:] {
		if math.Abs(float64(o)-percent) < math.Abs(float64(best)-percent) {
			best = o
		}
	}
	return best
}

// InsertImage stages file and appends a placeholder image to the document.
// It returns the placeholder uuid and the blob URL used as its src.
func (s *Session) InsertImage(ctx context.Context, file imagestore.File, natural Size) (string, string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", "", ErrClosed
	}
	id := s.newID()
	blobURL := "blob:" + s.blobOrigin + "/" + s.newID()
	s.mu.Unlock()

	if err := s.stager.Save(ctx, file, id, blobURL, s.pageID); err != nil {
		return "", "", fmt.Errorf("stage image: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", "", ErrClosed
	}
	s.doc.AppendParagraph(markdown.Image(blobURL, "temp:"+id))
	s.natural[blobURL] = natural
	s.html = s.doc.HTML()
	s.touchLocked()
	s.log.With("uuid", id).Debug("temporary image inserted")
	return id, blobURL, nil
}

// SetNaturalSize records the intrinsic size of an image already in the document.
func (s *Session) SetNaturalSize(src string, size Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.natural[src] = size
}

func (s *Session) naturalWidthLocked(src string) int {
	if n, ok := s.natural[src]; ok && n.Width > 0 {
		return n.Width
	}
	return FallbackNaturalWidth
}

// ResizeMenu computes the current size of the image at src relative to its
// natural width, snapped to the nearest option.
func (s *Session) ResizeMenu(src string, displayedWidth int) (*Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.FindImage(src) == nil {
		return nil, ErrImageNotFound
	}
	natural := s.naturalWidthLocked(src)
	current := SnapPercentage(float64(displayedWidth) * 100 / float64(natural))
	return &Menu{Src: src, Current: current, Options: append([]int(nil), ResizeOptions...)}, nil
}

// ResizeImage sets the image at src to percent of its natural width. The
// image node is patched in place and the patch returned at once; the
// serialized HTML is then reconciled and the host notified asynchronously.
func (s *Session) ResizeImage(src string, percent int) (*Patch, error) {
	if !slices.Contains(ResizeOptions, percent) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, percent)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	img := s.doc.FindImage(src)
	if img == nil {
		return nil, ErrImageNotFound
	}
	width := max(s.naturalWidthLocked(src)*percent/100, 1)
	img.Width = width
	img.Style = fmt.Sprintf("width: %dpx; height: auto; max-width: 100%%; display: block; margin: 10px 0; border-radius: 8px;", width)
	patch := &Patch{Src: src, Width: width, Style: img.Style}

	s.resizeGen++
	go s.reconcile(s.resizeGen)
	return patch, nil
}

// reconcile re-serializes the document after a resize. A reconcile that a
// later resize superseded does nothing.
func (s *Session) reconcile(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.resizeGen {
		s.mu.Unlock()
		return
	}
	s.html = s.doc.HTML()
	md := s.conv.ToMarkdown(s.html)
	s.value = md
	s.rev++
	rev := s.rev
	s.mu.Unlock()

	s.deliver(rev, md)
}
