package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps vectors in process memory with an optional TTL.
type MemoryBackend struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	vec     []float32
	expires time.Time
}

// NewMemoryBackend creates an in-memory backend. A zero ttl never expires.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns an unexpired vector.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]float32, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.vec, true, nil
}

// Set stores a copy of vec.
func (m *MemoryBackend) Set(_ context.Context, key string, vec []float32) error {
	e := memoryEntry{vec: append([]float32(nil), vec...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close drops all entries.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
