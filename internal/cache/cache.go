// Package cache provides the analysis result cache that wraps engine
// calls at the boundary. The engine itself holds no cache; a Service is
// constructed by the caller and passed explicitly.
package cache

import (
	"context"
	"sync"
	"time"

	"ctalens/internal/model"
)

// Key identifies one cached analysis. The engine's determinism makes
// (url, device, primary element) a complete cache key.
type Key struct {
	URL              string
	Device           model.DeviceType
	PrimaryElementID string
}

// String renders the Redis key for this entry.
func (k Key) String() string {
	return "ctalens:analysis:" + string(k.Device) + ":" + k.PrimaryElementID + ":" + k.URL
}

// Service is the cache contract handed to the HTTP layer. Get returns
// ok=false on a miss; Put stores the serialized analysis with a TTL.
type Service interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Put(ctx context.Context, key Key, value []byte, ttl time.Duration) error
}

// Memory is an in-process Service used when no Redis is configured and
// in tests. Entries expire lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key.String()]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key.String())
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Put(_ context.Context, key Key, value []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key.String()] = memoryEntry{value: value, expiresAt: expires}
	m.mu.Unlock()
	return nil
}
