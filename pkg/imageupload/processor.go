// Package imageupload resolves temporary image placeholders into hosted
// images through the signed-URL upload flow.
package imageupload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/media"
)

// ErrImageNotStored means a placeholder has no staged record behind it.
var ErrImageNotStored = errors.New("temporary image not found in store")

const fallbackAlt = "image"

// Store is the part of the temporary image store the processor needs.
type Store interface {
	GetAsFile(ctx context.Context, uuid, pageID string) (*imagestore.File, bool)
	Remove(ctx context.Context, uuid, pageID string) error
}

// Output is a fully resolved document.
type Output struct {
	Markdown       string   `json:"markdown"`
	ImageURLs      []string `json:"imageUrls"`
	ImageFileNames []string `json:"imageFileNames"`
}

// Failure is one placeholder that could not be resolved.
type Failure struct {
	UUID string
	Err  error
}

// UploadError aggregates every failed placeholder of a Process call.
type UploadError struct {
	Failures []Failure
}

func (e *UploadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to upload %d image(s)", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; uuid %s: %v", f.UUID, f.Err)
	}
	return b.String()
}

// UUIDs lists the failed placeholders in document order.
func (e *UploadError) UUIDs() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.UUID
	}
	return out
}

func (e *UploadError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Err
	}
	return out
}

// Processor uploads staged images and rewrites their placeholders.
type Processor struct {
	store       Store
	uploader    Uploader
	log         *logger.Logger
	maxAttempts int
	backoff     time.Duration
	concurrency int
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithRetry sets the attempts per image and the linear backoff unit.
func WithRetry(attempts int, backoff time.Duration) ProcessorOption {
	return func(p *Processor) {
		p.maxAttempts = attempts
		p.backoff = backoff
	}
}

// WithConcurrency caps simultaneous uploads. Zero or less means no cap.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) { p.concurrency = n }
}

func NewProcessor(store Store, uploader Uploader, log *logger.Logger, opts ...ProcessorOption) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	p := &Processor{
		store:       store,
		uploader:    uploader,
		log:         log.With("component", "upload-processor"),
		maxAttempts: 3,
		backoff:     time.Second,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type uploaded struct {
	result *Result
	alt    string
}

// Process uploads every staged image referenced by text and returns the
// document with placeholders rewritten to hosted URLs. It is all or
// nothing: on any failure the error is an *UploadError naming every failed
// uuid and no staged record is removed. onProgress, if set, is called after
// each upload is dispatched.
func (p *Processor) Process(ctx context.Context, text, pageID string, onProgress func(current, total int)) (*Output, error) {
	out := &Output{Markdown: text, ImageURLs: []string{}, ImageFileNames: []string{}}
	placeholders := FindPlaceholders(text)
	if len(placeholders) == 0 {
		return out, nil
	}

	folder := media.FolderForPage(pageID)
	total := len(placeholders)
	results := make([]uploaded, total)
	errs := make([]error, total)

	var g errgroup.Group
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, ph := range placeholders {
		g.Go(func() error {
			res, alt, err := p.uploadOne(ctx, ph.UUID, pageID, folder)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = uploaded{result: res, alt: alt}
			return nil
		})
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}
	_ = g.Wait()

	var failed []Failure
	for i, err := range errs {
		if err != nil {
			failed = append(failed, Failure{UUID: placeholders[i].UUID, Err: err})
		}
	}
	if len(failed) > 0 {
		p.log.With("page", pageID).Error(fmt.Sprintf("%d of %d image uploads failed", len(failed), total))
		return nil, &UploadError{Failures: failed}
	}

	rewritten := text
	for i, ph := range placeholders {
		res := results[i].result
		rewritten = rewrite(rewritten, ph.UUID, results[i].alt, res.URL)
		out.ImageURLs = append(out.ImageURLs, res.URL)
		if res.FileName != "" {
			out.ImageFileNames = append(out.ImageFileNames, res.FileName)
		}
	}
	for _, ph := range placeholders {
		if err := p.store.Remove(ctx, ph.UUID, pageID); err != nil {
			p.log.With("uuid", ph.UUID).Err(err, "could not remove consumed temp image")
		}
	}
	out.Markdown = rewritten
	p.log.With("page", pageID).With("count", total).Info("temporary images uploaded")
	return out, nil
}

func (p *Processor) uploadOne(ctx context.Context, uuid, pageID, folder string) (*Result, string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		file, ok := p.store.GetAsFile(ctx, uuid, pageID)
		if !ok {
			return nil, "", ErrImageNotStored
		}
		res, err := p.uploader.Upload(ctx, *file, folder)
		if err == nil {
			alt := file.Name
			if alt == "" {
				alt = fallbackAlt
			}
			return res, alt, nil
		}
		lastErr = err
		if terminal(err) {
			return nil, "", err
		}
		p.log.With("uuid", uuid).With("attempt", attempt).Warn(fmt.Sprintf("upload attempt failed: %v", err))
		if attempt < p.maxAttempts {
			if err := sleep(ctx, time.Duration(attempt)*p.backoff); err != nil {
				return nil, "", err
			}
		}
	}
	return nil, "", fmt.Errorf("upload failed after %d attempts: %w", p.maxAttempts, lastErr)
}

func terminal(err error) bool {
	return errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
