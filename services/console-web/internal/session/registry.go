// Package session keeps the live editor sessions of the console.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/admVeloHub/Console-v2-gcp/pkg/editor"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
)

var ErrNotFound = errors.New("editor session not found")

// Entry is one registered editor with the last value it propagated.
type Entry struct {
	ID string
	// Owner is the operator that opened the session.
	Owner   string
	Session *editor.Session

	mu         sync.Mutex
	propagated string
	revision   int
	touched    time.Time
}

// Propagated returns the last markdown the editor pushed and how many
// pushes happened so far.
func (e *Entry) Propagated() (string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.propagated, e.revision
}

func (e *Entry) onChange(md string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.propagated = md
	e.revision++
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.touched = now
	e.mu.Unlock()
}

func (e *Entry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.touched
}

// Registry owns the sessions and closes them when they go stale.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	conv   *markdown.Converter
	stager editor.Stager
	log    *logger.Logger
	opts   []editor.Option
	newID  func() string
	now    func() time.Time
}

func NewRegistry(conv *markdown.Converter, stager editor.Stager, log *logger.Logger, opts ...editor.Option) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		conv:    conv,
		stager:  stager,
		log:     log.With("component", "sessions"),
		opts:    opts,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Open starts a session of owner for pageID seeded with value.
func (r *Registry) Open(owner, pageID, value string) *Entry {
	e := &Entry{ID: r.newID(), Owner: owner, touched: r.now()}
	e.Session = editor.NewSession(r.conv, r.stager, r.log, pageID, e.onChange, r.opts...)
	if value != "" {
		e.Session.SetValue(value)
	}

	r.mu.Lock()
	r.entries[e.ID] = e
	r.mu.Unlock()
	r.log.With("session", e.ID).With("page", pageID).With("operator", owner).Debug("editor session opened")
	return e
}

// Get returns the session with id and marks it as used. Sessions of
// other owners are reported as not found.
func (r *Registry) Get(id, owner string) (*Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok || e.Owner != owner {
		return nil, ErrNotFound
	}
	e.touch(r.now())
	return e, nil
}

// Close stops and forgets the session with id if owner opened it.
func (r *Registry) Close(id, owner string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.Owner != owner {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.entries, id)
	r.mu.Unlock()
	e.Session.Close()
	return nil
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseIdle closes every session unused for longer than maxIdle.
func (r *Registry) CloseIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	var stale []*Entry
	r.mu.Lock()
	for id, e := range r.entries {
		if e.idleSince().Before(cutoff) {
			stale = append(stale, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()
	for _, e := range stale {
		e.Session.Close()
	}
	if len(stale) > 0 {
		r.log.Info("closed idle editor sessions")
	}
	return len(stale)
}
