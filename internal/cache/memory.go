package cache

import (
	"context"
	"sync"
	"time"
)

const defaultTTL = 5 * time.Minute

// Memory is an in-process Cache suitable for single-instance deployments
// and tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	// byRoom indexes entry keys per room for whole-room invalidation.
	byRoom map[string]map[string]struct{}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		byRoom:  make(map[string]map[string]struct{}),
	}
}

// Get returns the cached value and whether it was present and unexpired.
func (m *Memory) Get(_ context.Context, key Key) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key.String()]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		m.evict(key.RoomID, key.String())
		return nil, false
	}
	return entry.value, true
}

// Set stores a value.
func (m *Memory) Set(_ context.Context, key Key, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := key.String()
	m.entries[k] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	if m.byRoom[key.RoomID] == nil {
		m.byRoom[key.RoomID] = make(map[string]struct{})
	}
	m.byRoom[key.RoomID][k] = struct{}{}
}

// InvalidateRoom drops every entry scoped to the room.
func (m *Memory) InvalidateRoom(_ context.Context, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.byRoom[roomID] {
		delete(m.entries, k)
	}
	delete(m.byRoom, roomID)
}

// Close is a no-op for the in-memory cache.
func (m *Memory) Close() error {
	return nil
}

// evict removes one entry. Caller must hold mu.
func (m *Memory) evict(roomID, key string) {
	delete(m.entries, key)
	if keys := m.byRoom[roomID]; keys != nil {
		delete(keys, key)
	}
}
