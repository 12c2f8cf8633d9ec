// Package imagestore stages images that were inserted into a draft but not
// yet uploaded. Records are scoped per owner and page, and survive until
// they are explicitly removed, cleared or swept.
package imagestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
)

const keyPrefix = "velohub_temp_images_"

// DefaultMaxAge is the age after which SweepOlderThan treats a record as orphaned.
const DefaultMaxAge = 7 * 24 * time.Hour

// ErrQuotaExceeded is returned by Save when a page already holds the maximum
// number of staged images.
var ErrQuotaExceeded = errors.New("temporary image quota exceeded")

// Record is a staged image.
type Record struct {
	UUID      string `json:"uuid"`
	BlobURL   string `json:"blobUrl"`
	FileName  string `json:"fileName"`
	FileType  string `json:"fileType"`
	FileSize  int64  `json:"fileSize"`
	Base64    string `json:"base64"`
	Timestamp int64  `json:"timestamp"`
}

// File is the original upload: content, name and MIME type.
type File struct {
	Name string
	Type string
	Data []byte
}

// File decodes the record back into the file it was created from.
func (r *Record) File() (*File, error) {
	data, err := base64.StdEncoding.DecodeString(r.Base64)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.UUID, err)
	}
	return &File{Name: r.FileName, Type: r.FileType, Data: data}, nil
}

type ownerKey struct{}

// WithOwner scopes every store call made with ctx to the drafts of owner,
// typically the operator id. Without an owner the page key is shared.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFrom returns the owner set by WithOwner.
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// StorageKey returns the key under which an owner's records for a page live.
func StorageKey(owner, pageID string) string {
	if owner == "" {
		return keyPrefix + pageID
	}
	return keyPrefix + owner + ":" + pageID
}

func storageKey(ctx context.Context, pageID string) string {
	return StorageKey(OwnerFrom(ctx), pageID)
}

// backend is a hash-of-hashes: one hash per page key, one field per uuid.
type backend interface {
	hset(ctx context.Context, key, field string, value []byte) error
	// hsetCapped sets field unless that would grow the hash past limit.
	// It reports whether the value was stored.
	hsetCapped(ctx context.Context, key, field string, value []byte, limit int) (bool, error)
	hget(ctx context.Context, key, field string) ([]byte, bool, error)
	hgetall(ctx context.Context, key string) (map[string][]byte, error)
	hdel(ctx context.Context, key string, fields ...string) error
	del(ctx context.Context, key string) error
}

// Store is the temporary image store. Read failures are logged and
// degrade to empty results; reads never delete.
type Store struct {
	b     backend
	log   *logger.Logger
	quota int
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithQuota caps the number of records per owner and page. Zero means unlimited.
func WithQuota(n int) Option {
	return func(s *Store) { s.quota = n }
}

// WithClock overrides the time source used for record timestamps and sweeps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func newStore(b backend, log *logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{b: b, log: log.With("component", "imagestore"), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save encodes file and upserts it under uuid. Saving an existing uuid
// overwrites the previous record. The quota check and the write are one
// atomic backend operation.
func (s *Store) Save(ctx context.Context, file File, uuid, blobURL, pageID string) error {
	key := storageKey(ctx, pageID)
	rec := Record{
		UUID:      uuid,
		BlobURL:   blobURL,
		FileName:  file.Name,
		FileType:  file.Type,
		FileSize:  int64(len(file.Data)),
		Base64:    base64.StdEncoding.EncodeToString(file.Data),
		Timestamp: s.now().UnixMilli(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", uuid, err)
	}
	if s.quota <= 0 {
		if err := s.b.hset(ctx, key, uuid, value); err != nil {
			s.log.Err(err, "save temp image failed")
			return fmt.Errorf("save %s: %w", uuid, err)
		}
		return nil
	}
	stored, err := s.b.hsetCapped(ctx, key, uuid, value, s.quota)
	if err != nil {
		s.log.Err(err, "save temp image failed")
		return fmt.Errorf("save %s: %w", uuid, err)
	}
	if !stored {
		s.log.With("page", pageID).Warn("temp image quota exceeded")
		return ErrQuotaExceeded
	}
	return nil
}

// Get returns the record for uuid.
func (s *Store) Get(ctx context.Context, uuid, pageID string) (*Record, bool) {
	raw, ok, err := s.b.hget(ctx, storageKey(ctx, pageID), uuid)
	if err != nil {
		s.log.Err(err, "load temp image failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	rec, err := decode(raw)
	if err != nil {
		s.log.With("uuid", uuid).Err(err, "corrupt temp image record")
		return nil, false
	}
	return rec, true
}

// GetAsFile returns the original file for uuid.
func (s *Store) GetAsFile(ctx context.Context, uuid, pageID string) (*File, bool) {
	rec, ok := s.Get(ctx, uuid, pageID)
	if !ok {
		return nil, false
	}
	f, err := rec.File()
	if err != nil {
		s.log.With("uuid", uuid).Err(err, "corrupt temp image payload")
		return nil, false
	}
	return f, true
}

// GetAll returns every readable record of a page keyed by uuid.
func (s *Store) GetAll(ctx context.Context, pageID string) map[string]*Record {
	out := make(map[string]*Record)
	all, err := s.b.hgetall(ctx, storageKey(ctx, pageID))
	if err != nil {
		s.log.Err(err, "list temp images failed")
		return out
	}
	for uuid, raw := range all {
		rec, err := decode(raw)
		if err != nil {
			s.log.With("uuid", uuid).Err(err, "skipping corrupt temp image record")
			continue
		}
		out[uuid] = rec
	}
	return out
}

// Remove deletes one record.
func (s *Store) Remove(ctx context.Context, uuid, pageID string) error {
	if err := s.b.hdel(ctx, storageKey(ctx, pageID), uuid); err != nil {
		s.log.Err(err, "remove temp image failed")
		return fmt.Errorf("remove %s: %w", uuid, err)
	}
	return nil
}

// ClearAll deletes every record of a page for the owner in ctx.
func (s *Store) ClearAll(ctx context.Context, pageID string) error {
	if err := s.b.del(ctx, storageKey(ctx, pageID)); err != nil {
		s.log.Err(err, "clear temp images failed")
		return fmt.Errorf("clear %s: %w", pageID, err)
	}
	return nil
}

// SweepOlderThan removes records older than maxAge and returns how many
// were removed. A non-positive maxAge means DefaultMaxAge.
func (s *Store) SweepOlderThan(ctx context.Context, pageID string, maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	cutoff := s.now().Add(-maxAge).UnixMilli()
	var stale []string
	for uuid, rec := range s.GetAll(ctx, pageID) {
		if rec.Timestamp < cutoff {
			stale = append(stale, uuid)
		}
	}
	if len(stale) == 0 {
		return 0
	}
	if err := s.b.hdel(ctx, storageKey(ctx, pageID), stale...); err != nil {
		s.log.Err(err, "sweep temp images failed")
		return 0
	}
	s.log.With("page", pageID).With("removed", len(stale)).Info("swept orphaned temp images")
	return len(stale)
}

func decode(raw []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	if rec.UUID == "" {
		return nil, errors.New("record without uuid")
	}
	return &rec, nil
}
