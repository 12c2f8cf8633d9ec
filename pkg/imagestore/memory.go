package imagestore

import (
	"context"
	"sync"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
)

// NewMemoryStore returns a store kept in process memory.
func NewMemoryStore(log *logger.Logger, opts ...Option) *Store {
	return newStore(&memoryBackend{pages: make(map[string]map[string][]byte)}, log, opts...)
}

type memoryBackend struct {
	mu    sync.RWMutex
	pages map[string]map[string][]byte
}

func (m *memoryBackend) hset(_ context.Context, key, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[key]
	if !ok {
		page = make(map[string][]byte)
		m.pages[key] = page
	}
	page[field] = append([]byte(nil), value...)
	return nil
}

func (m *memoryBackend) hget(_ context.Context, key, field string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.pages[key][field]
	return v, ok, nil
}

func (m *memoryBackend) hgetall(_ context.Context, key string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.pages[key]))
	for k, v := range m.pages[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memoryBackend) hsetCapped(_ context.Context, key, field string, value []byte, limit int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := m.pages[key]
	if _, exists := page[field]; !exists && len(page) >= limit {
		return false, nil
	}
	if page == nil {
		page = make(map[string][]byte)
		m.pages[key] = page
	}
	page[field] = append([]byte(nil), value...)
	return true, nil
}

func (m *memoryBackend) hdel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fields {
		delete(m.pages[key], f)
	}
	if len(m.pages[key]) == 0 {
		delete(m.pages, key)
	}
	return nil
}

func (m *memoryBackend) del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pages, key)
	return nil
}
