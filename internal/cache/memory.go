package cache

import (
	"sync"
	"time"
)

// MemoryTier is the bounded in-process tier for very hot keys. Entries expire
// lazily on read; when the tier is full the oldest insert is evicted (FIFO).
type MemoryTier struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]memoryEntry
	order    []string

	now func() time.Time // test hook
}

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

func NewMemoryTier(capacity int) *MemoryTier {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryTier{
		capacity: capacity,
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryTier) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		m.dropFromOrder(key)
		return nil, false
	}
	return e.value, true
}

func (m *MemoryTier) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists {
		for len(m.entries) >= m.capacity && len(m.order) > 0 {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.entries, oldest)
		}
		m.order = append(m.order, key)
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
}

func (m *MemoryTier) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryTier) dropFromOrder(key string) {
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
