// Package editor models one rich-text editing session: the live document,
// debounced propagation of edits, staged image insertion and image resizing.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
)

const (
	DefaultDebounce = 150 * time.Millisecond
	DefaultSettle   = 100 * time.Millisecond
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("editor session closed")

// Phase is the typing state of a session.
type Phase int

const (
	Idle Phase = iota
	Typing
)

func (p Phase) String() string {
	if p == Typing {
		return "typing"
	}
	return "idle"
}

// Stager stages inserted images until the document is submitted.
type Stager interface {
	Save(ctx context.Context, file imagestore.File, uuid, blobURL, pageID string) error
}

// Session is the state of one editor instance. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	conv     *markdown.Converter
	stager   Stager
	log      *logger.Logger
	pageID   string
	onChange func(markdown string)

	doc   *markdown.Document
	html  string
	value string

	phase      Phase
	lastEditAt time.Time
	gen        uint64
	debounce   *time.Timer
	settle     *time.Timer
	closed     bool

	natural map[string]Size

	// rev stamps every computed value; deliverMu orders onChange calls so a
	// value never reaches the host after a newer one.
	rev       uint64
	resizeGen uint64
	deliverMu sync.Mutex
	delivered uint64

	debounceDelay time.Duration
	settleDelay   time.Duration
	newID         func() string
	now           func() time.Time
	blobOrigin    string
}

// Option configures a Session.
type Option func(*Session)

// WithTiming overrides the debounce and settle delays.
func WithTiming(debounce, settle time.Duration) Option {
	return func(s *Session) {
		s.debounceDelay = debounce
		s.settleDelay = settle
	}
}

// WithIDs overrides the generator for image uuids and blob URLs.
func WithIDs(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithBlobOrigin sets the origin embedded in generated blob URLs.
func WithBlobOrigin(origin string) Option {
	return func(s *Session) { s.blobOrigin = origin }
}

// NewSession creates an idle session for pageID. onChange receives the
// markdown of every propagated change and may be nil.
func NewSession(conv *markdown.Converter, stager Stager, log *logger.Logger, pageID string, onChange func(string), opts ...Option) *Session {
	if log == nil {
		log = logger.Nop()
	}
	s := &Session{
		conv:          conv,
		stager:        stager,
		log:           log.With("page", pageID),
		pageID:        pageID,
		onChange:      onChange,
		doc:           &markdown.Document{},
		natural:       make(map[string]Size),
		debounceDelay: DefaultDebounce,
		settleDelay:   DefaultSettle,
		newID:         uuid.NewString,
		now:           time.Now,
		blobOrigin:    "http://localhost",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageID returns the page the session edits.
func (s *Session) PageID() string {
	return s.pageID
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) LastEditAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEditAt
}

// HTML returns the editor's current serialized HTML.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html
}

// Value returns the last markdown propagated to or accepted from the host.
func (s *Session) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// SetValue applies a value pushed by the host. It is ignored while the
// user is typing or when it equals the current value.
func (s *Session) SetValue(md string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase == Typing || md == s.value {
		return false
	}
	doc, err := markdown.ParseMarkdown(md)
	if err != nil {
		s.log.Err(err, "rejecting external value")
		return false
	}
	s.value = md
	s.doc = doc
	s.html = s.conv.ToHTML(md)
	return true
}

// Edit records a user change to the editor HTML. The change is propagated
// after the debounce delay; the session returns to Idle once it settles.
func (s *Session) Edit(html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	doc, err := markdown.ParseHTML(html)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	s.html = html
	s.doc = doc
	s.touchLocked()
	return nil
}

// touchLocked marks a user edit and restarts the debounce.
func (s *Session) touchLocked() {
	s.phase = Typing
	s.lastEditAt = s.now()
	s.gen++
	gen := s.gen
	s.stopTimersLocked()
	s.debounce = time.AfterFunc(s.debounceDelay, func() { s.propagate(gen) })
}

func (s *Session) propagate(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	md := s.conv.ToMarkdown(s.html)
	s.value = md
	s.settle = time.AfterFunc(s.settleDelay, func() { s.settleIdle(gen) })
	s.rev++
	rev := s.rev
	s.mu.Unlock()

	s.deliver(rev, md)
}

// deliver hands md to onChange unless a newer value was already delivered.
func (s *Session) deliver(rev uint64, md string) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if rev <= s.delivered || s.onChange == nil {
		return
	}
	s.delivered = rev
	s.onChange(md)
}

func (s *Session) settleIdle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.phase = Idle
}

func (s *Session) stopTimersLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
	}
	if s.settle != nil {
		s.settle.Stop()
	}
}

// Close stops pending timers. Callbacks that were already scheduled do nothing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimersLocked()
}
