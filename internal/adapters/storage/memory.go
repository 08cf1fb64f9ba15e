package storage

import (
	"context"
	"sync"

	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

var (
	_ ports.SessionStore  = (*MemoryStore)(nil)
	_ ports.SettingsCache = (*MemoryStore)(nil)
)

// MemoryStore keeps the session for the lifetime of the process only.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]string
	snapshot *ports.SettingsSnapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Store(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, snap ports.SettingsSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = &snap
	return nil
}

func (m *MemoryStore) LoadSnapshot(_ context.Context) (ports.SettingsSnapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return ports.SettingsSnapshot{}, false, nil
	}
	return *m.snapshot, true, nil
}

// Close is a no-op so MemoryStore can stand in for SQLiteAdapter.
func (m *MemoryStore) Close() error {
	return nil
}
