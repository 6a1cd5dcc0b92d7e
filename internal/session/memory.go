package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps a session in process memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	now     func() time.Time
	items   map[string]string
	cookies map[string]CookieRecord
}

// NewMemoryStorage returns an empty in-memory storage.
func NewMemoryStorage(now func() time.Time) *MemoryStorage {
	if now == nil {
		now = time.Now
	}
	return &MemoryStorage{
		now:     now,
		items:   make(map[string]string),
		cookies: make(map[string]CookieRecord),
	}
}

// Item returns the local storage value stored under key.
func (m *MemoryStorage) Item(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok, nil
}

// Cookie returns the named cookie unless it is missing or expired.
func (m *MemoryStorage) Cookie(_ context.Context, name string) (CookieRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.cookies[name]
	if !ok || !m.now().Before(record.ExpiresAt) {
		return CookieRecord{}, false, nil
	}
	return record, true, nil
}

// Apply writes the mutation under a single lock.
func (m *MemoryStorage) Apply(_ context.Context, mutation Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range mutation.Set {
		m.items[key] = value
	}
	for _, key := range mutation.Remove {
		delete(m.items, key)
	}
	if c := mutation.Cookie; c != nil {
		if c.MaxAge <= 0 {
			delete(m.cookies, c.Name)
		} else {
			record := *c
			record.ExpiresAt = m.now().Add(c.MaxAge)
			m.cookies[c.Name] = record
		}
	}
	return nil
}
