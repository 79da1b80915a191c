package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a draft.Storage backed by Redis string keys.
type Storage struct {
	db            redis.UniversalClient
	scanBatchSize int64
	expiration    time.Duration
}

// NewStorage wraps client with a scan batch of 1000 and no key expiration.
func NewStorage(client redis.UniversalClient) *Storage {
	return &Storage{
		db:            client,
		scanBatchSize: 1000,
	}
}

// NewStorageWithConfig applies the scan batch size and key expiration from cfg.
func NewStorageWithConfig(client redis.UniversalClient, cfg Config) *Storage {
	s := NewStorage(client)
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = int64(cfg.ScanBatchSize)
	}
	if cfg.KeyExpiration > 0 {
		s.expiration = cfg.KeyExpiration
	}
	return s
}

// Get returns nil, nil for missing keys.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	val, err := s.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *Storage) Set(ctx context.Context, key string, val []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Set(ctx, key, val, s.expiration).Err()
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.db.Del(ctx, key).Err()
}

// Keys lists keys starting with prefix using SCAN, so large databases are
// never blocked by KEYS.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(prefix) + "*"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.db.Scan(ctx, cursor, pattern, s.scanBatchSize).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range batch {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return keys, nil
}

// Close terminates the Redis connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Conn returns the underlying Redis client for advanced operations.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

var globReplacer = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
