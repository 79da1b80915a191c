package draft_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/validator"
)

type orgDraft struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
	Size    string `json:"size,omitempty"`
}

func (o orgDraft) Validate() error {
	return validator.Apply(
		validator.MaxLen("name", o.Name, 100),
		validator.Optional(o.Website, validator.ValidURL("website", o.Website)),
	)
}

type profileDraft struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Role      string   `json:"role"`
	Interests []string `json:"interests,omitempty"`
}

type prefsDraft struct {
	Theme      string `json:"theme,omitempty"`
	Newsletter bool   `json:"newsletter"`
}

func testSchemas() draft.Schemas {
	return draft.Schemas{
		"organization": draft.NewSchema[orgDraft]("name"),
		"profile":      draft.NewSchema[profileDraft]("firstName", "lastName", "role"),
		"preferences":  draft.NewSchema[prefsDraft](),
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingStorage counts writes per key.
type countingStorage struct {
	*draft.MemoryStorage
	mu   sync.Mutex
	sets map[string]int
	last map[string][]byte
	fail atomic.Bool
}

func newCountingStorage() *countingStorage {
	return &countingStorage{
		MemoryStorage: draft.NewMemoryStorage(),
		sets:          make(map[string]int),
		last:          make(map[string][]byte),
	}
}

func (c *countingStorage) Set(ctx context.Context, key string, val []byte) error {
	if c.fail.Load() {
		return draft.ErrQuotaExceeded
	}
	c.mu.Lock()
	c.sets[key]++
	c.last[key] = append([]byte(nil), val...)
	c.mu.Unlock()
	return c.MemoryStorage.Set(ctx, key, val)
}

func (c *countingStorage) Sets(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets[key]
}
