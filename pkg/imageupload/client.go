package imageupload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/media"
)

// MaxFileSize is the largest image the upload API accepts.
const MaxFileSize = 10 * 1024 * 1024

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	// ErrSignedURLExpired is returned when storage rejects a PUT with 403.
	ErrSignedURLExpired = errors.New("signed upload url expired")
	ErrUnsupportedType  = errors.New("file type not allowed, use jpg, jpeg, png, gif or webp")
	ErrFileTooLarge     = errors.New("file too large, maximum size is 10MB")
)

// AllowedType reports whether mime is an accepted image type.
func AllowedType(mime string) bool {
	return allowedTypes[strings.ToLower(mime)]
}

// Validate checks type and size before any network call is made.
func Validate(mimeType string, size int64) error {
	if !AllowedType(mimeType) {
		return ErrUnsupportedType
	}
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// SignedURL is the issuer's answer to an upload request.
type SignedURL struct {
	UploadURL string            `json:"uploadUrl"`
	FileName  string            `json:"fileName"`
	Bucket    string            `json:"bucket"`
	ExpiresIn int               `json:"expiresIn"`
	Headers   map[string]string `json:"headers,omitempty"`
	// PublicURL is set by issuers that know where the object will be served.
	PublicURL string `json:"publicUrl,omitempty"`
}

// UploadURLRequest is the body of POST /uploads/generate-upload-url.
type UploadURLRequest struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
	Folder   string `json:"folder,omitempty"`
}

// Result describes an image that is durably stored.
type Result struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Bucket   string `json:"bucket"`
}

// Uploader stores one image in folder.
type Uploader interface {
	Upload(ctx context.Context, file imagestore.File, folder string) (*Result, error)
}

type tokenKey struct{}

// WithAccessToken returns a context whose upload requests carry token.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func accessToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client talks to the signed-URL issuer and to storage.
type Client struct {
	apiURL      string
	publicBase  string
	http        *http.Client
	log         *logger.Logger
	maxAttempts int
	backoff     time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithPublicBase sets the host used to build public image URLs when the
// issuer does not return one.
func WithPublicBase(base string) ClientOption {
	return func(c *Client) { c.publicBase = base }
}

// WithClientRetry sets the PUT attempt count and the linear backoff unit.
func WithClientRetry(attempts int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.backoff = backoff
	}
}

// NewClient creates a client for the issuer at apiURL.
func NewClient(apiURL string, log *logger.Logger, opts ...ClientOption) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		apiURL:      strings.TrimRight(apiURL, "/"),
		publicBase:  media.DefaultPublicBase,
		http:        &http.Client{Timeout: 5 * time.Minute},
		log:         log.With("component", "upload-client"),
		maxAttempts: 3,
		backoff:     time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool       `json:"success"`
	Data    *SignedURL `json:"data"`
	Error   string     `json:"error"`
	Message string     `json:"message"`
}

// GenerateUploadURL asks the issuer for a signed PUT URL.
func (c *Client) GenerateUploadURL(ctx context.Context, req UploadURLRequest) (*SignedURL, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/uploads/generate-upload-url", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token := accessToken(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate upload url: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("decode upload url response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("generate upload url: %d: %s", resp.StatusCode, msg)
	}
	if !env.Success || env.Data == nil || env.Data.UploadURL == "" || env.Data.FileName == "" {
		return nil, errors.New("generate upload url: invalid response, missing uploadUrl or fileName")
	}
	return env.Data, nil
}

// Put sends the raw bytes to a signed URL.
func (c *Client) Put(ctx context.Context, signed *SignedURL, file imagestore.File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signed.UploadURL, bytes.NewReader(file.Data))
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(file.Data))
	for k, v := range signed.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", file.Type)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", signed.FileName, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("put %s: %w (status 403)", signed.FileName, ErrSignedURLExpired)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("put %s: storage returned %d", signed.FileName, resp.StatusCode)
	}
	return nil
}

// Upload validates file, obtains a signed URL and PUTs the bytes. An
// expired URL is regenerated before the next attempt.
func (c *Client) Upload(ctx context.Context, file imagestore.File, folder string) (*Result, error) {
	if err := Validate(file.Type, int64(len(file.Data))); err != nil {
		return nil, err
	}
	req := UploadURLRequest{FileName: file.Name, MimeType: file.Type, FileSize: int64(len(file.Data)), Folder: folder}
	signed, err := c.GenerateUploadURL(ctx, req)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err = c.Put(ctx, signed, file)
		if err == nil {
			break
		}
		if attempt >= c.maxAttempts {
			return nil, err
		}
		c.log.With("attempt", attempt).Warn(fmt.Sprintf("upload of %s failed: %v", signed.FileName, err))
		if errors.Is(err, ErrSignedURLExpired) {
			fresh, genErr := c.GenerateUploadURL(ctx, req)
			if genErr != nil {
				return nil, genErr
			}
			signed = fresh
		}
		if err := sleep(ctx, time.Duration(attempt)*c.backoff); err != nil {
			return nil, err
		}
	}

	url := signed.PublicURL
	if url == "" {
		url = media.PublicURL(c.publicBase, signed.Bucket, signed.FileName)
	}
	return &Result{
		URL:      url,
		FileName: signed.FileName,
		Bucket:   signed.Bucket,
	}, nil
}

// Delete asks the issuer to remove an uploaded object.
func (c *Client) Delete(ctx context.Context, fileName string) error {
	body, err := json.Marshal(map[string]string{"fileName": fileName})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.apiURL+"/uploads/image", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := accessToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", fileName, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete %s: issuer returned %d", fileName, resp.StatusCode)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
