package draft

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// MemoryStorage keeps drafts in process memory. A byte quota can be set to
// emulate a bounded browser-style store; Disable makes every call fail with
// ErrStorageUnavailable.
type MemoryStorage struct {
	mu       sync.RWMutex
	items    map[string][]byte
	used     int
	quota    int
	disabled atomic.Bool
}

// MemoryOption configures a MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithQuota caps the total size of keys plus values. Zero means unbounded.
func WithQuota(bytes int) MemoryOption {
	return func(m *MemoryStorage) {
		m.quota = bytes
	}
}

func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	m := &MemoryStorage{items: make(map[string][]byte)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if m.disabled.Load() {
		return nil, ErrStorageUnavailable
	}
	if key == "" {
		return nil, ErrEmptyKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), val...), nil
}

func (m *MemoryStorage) Set(ctx context.Context, key string, val []byte) error {
	if m.disabled.Load() {
		return ErrStorageUnavailable
	}
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + len(key) + len(val)
	if old, ok := m.items[key]; ok {
		used -= len(key) + len(old)
	}
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}

	m.items[key] = append([]byte(nil), val...)
	m.used = used
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	if m.disabled.Load() {
		return ErrStorageUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.items[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.items, key)
	}
	return nil
}

func (m *MemoryStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	if m.disabled.Load() {
		return nil, ErrStorageUnavailable
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Disable toggles the unavailable mode.
func (m *MemoryStorage) Disable(disabled bool) {
	m.disabled.Store(disabled)
}

// Used reports the bytes currently accounted against the quota.
func (m *MemoryStorage) Used() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
