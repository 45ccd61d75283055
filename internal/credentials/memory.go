package credentials

import (
	"context"
	"maps"
	"sync"
)

// MemoryBackend keeps entries in an in-process map. It never spawns an
// agent and exists so resolver behaviour can be exercised hermetically.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[LookupKey]string
}

// NewMemoryBackend creates a backend seeded with entries.
func NewMemoryBackend(entries map[LookupKey]string) *MemoryBackend {
	m := &MemoryBackend{
		entries: make(map[LookupKey]string, len(entries)),
	}
	maps.Copy(m.entries, entries)
	return m
}

// Fetch returns the stored password.
func (m *MemoryBackend) Fetch(_ context.Context, service, username string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	password, ok := m.entries[LookupKey{Service: service, Username: username}]
	return password, ok
}

// Store overwrites any existing entry.
func (m *MemoryBackend) Store(_ context.Context, service, username, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[LookupKey{Service: service, Username: username}] = password
}

// Delete removes the entry if present.
func (m *MemoryBackend) Delete(_ context.Context, service, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, LookupKey{Service: service, Username: username})
}

// Entries returns a snapshot of the stored entries.
func (m *MemoryBackend) Entries() map[LookupKey]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.entries)
}
