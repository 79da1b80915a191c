package draft

import "context"

// Storage is the key/value backend drafts are persisted to. Implementations
// must be safe for concurrent use and must not assume exclusive access.
type Storage interface {
	// Get returns nil, nil when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
