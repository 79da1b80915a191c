package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
)

const (
	DefaultPrefix  = "onboarding_draft_"
	DefaultVersion = "1.0.0"
	DefaultTTL     = 7 * 24 * time.Hour
)

// Schemas maps a step name to the schema its drafts must satisfy.
type Schemas map[string]Schema

// Store persists per-step drafts inside versioned, timestamped wrappers.
// Every operation is best-effort: storage failures are logged and reported
// as a false result, never as a panic.
type Store struct {
	storage Storage
	schemas Schemas
	prefix  string
	version string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key namespace. Keys are "{prefix}{step}".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithVersion sets the version written into new wrappers.
func WithVersion(version string) Option {
	return func(s *Store) {
		if version != "" {
			s.version = version
		}
	}
}

// WithTTL sets the retention window after which drafts are treated as absent.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store over storage. Only steps present in schemas can be
// saved or loaded.
func NewStore(storage Storage, schemas Schemas, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		schemas: maps.Clone(schemas),
		prefix:  DefaultPrefix,
		version: DefaultVersion,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("draft"))
	return s
}

// Key returns the storage key of step.
func (s *Store) Key(step string) string {
	return s.prefix + step
}

// Steps returns the registered step names in sorted order.
func (s *Store) Steps() []string {
	return slices.Sorted(maps.Keys(s.schemas))
}

// Schema returns the schema registered for step.
func (s *Store) Schema(step string) (Schema, bool) {
	schema, ok := s.schemas[step]
	return schema, ok
}

// TTL returns the retention window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Save writes data as the draft of step and reports whether it succeeded.
func (s *Store) Save(ctx context.Context, step string, data any) bool {
	return s.SaveErr(ctx, step, data) == nil
}

// SaveErr is Save with the failure reason. Before writing it removes expired
// or malformed drafts of the other steps.
func (s *Store) SaveErr(ctx context.Context, step string, data any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("save draft: panic: %v", r)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "draft save failed", logger.Step(step), logger.Error(err))
		}
	}()

	if _, ok := s.schemas[step]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}

	key := s.Key(step)
	if _, sweepErr := s.sweep(ctx, key); sweepErr != nil {
		s.logger.DebugContext(ctx, "draft sweep skipped", logger.Error(sweepErr))
	}

	val, err := encodeWrapper(data, s.version, s.now())
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, key, val); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

// LoadRaw returns the stored data of step when it is present, unexpired and
// valid under the step's current schema. Any other stored value is deleted.
func (s *Store) LoadRaw(ctx context.Context, step string) (json.RawMessage, bool) {
	schema, ok := s.schemas[step]
	if !ok {
		return nil, false
	}

	key := s.Key(step)
	raw, err := s.storage.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "draft read failed", logger.Step(step), logger.Error(err))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	w, err := DecodeWrapper(raw)
	if err == nil && w.Expired(s.now(), s.ttl) {
		err = ErrExpired
	}
	if err == nil {
		err = schema.Check(w.Data)
	}
	if err != nil {
		s.discard(ctx, key, err)
		return nil, false
	}
	return w.Data, true
}

// Load decodes the draft of step into dst, which must be a non-nil pointer.
func (s *Store) Load(ctx context.Context, step string, dst any) bool {
	raw, ok := s.LoadRaw(ctx, step)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.WarnContext(ctx, "draft decode failed", logger.Step(step), logger.Error(err))
		return false
	}
	return true
}

// Get loads the draft of step as T.
func Get[T any](ctx context.Context, s *Store, step string) (T, bool) {
	var out T
	if !s.Load(ctx, step, &out) {
		var zero T
		return zero, false
	}
	return out, true
}

// Inspect returns the raw wrapper of step without schema validation or
// deletion. Intended for diagnostics.
func (s *Store) Inspect(ctx context.Context, step string) (Wrapper, error) {
	raw, err := s.storage.Get(ctx, s.Key(step))
	if err != nil {
		return Wrapper{}, err
	}
	if raw == nil {
		return Wrapper{}, nil
	}
	return DecodeWrapper(raw)
}

// Age reports how long ago the draft of step was saved.
func (s *Store) Age(ctx context.Context, step string) (time.Duration, bool) {
	w, err := s.Inspect(ctx, step)
	if err != nil || w.Timestamp == 0 {
		return 0, false
	}
	return w.Age(s.now()), true
}

// ClearStep removes the draft of step. Missing drafts are not an error.
func (s *Store) ClearStep(ctx context.Context, step string) error {
	if err := s.storage.Delete(ctx, s.Key(step)); err != nil {
		s.logger.WarnContext(ctx, "draft clear failed", logger.Step(step), logger.Error(err))
		return err
	}
	return nil
}

// Clear removes every key under the store prefix.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.storage.Keys(ctx, s.prefix)
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}
	var errs []error
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sweep removes expired and malformed drafts and returns how many were removed.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	return s.sweep(ctx, "")
}

func (s *Store) sweep(ctx context.Context, skipKey string) (int, error) {
	keys, err := s.storage.Keys(ctx, s.prefix)
	if err != nil {
		return 0, fmt.Errorf("list drafts: %w", err)
	}

	now := s.now()
	removed := 0
	var errs []error
	for _, key := range keys {
		if key == skipKey || !strings.HasPrefix(key, s.prefix) {
			continue
		}
		raw, err := s.storage.Get(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if raw == nil {
			continue
		}
		w, err := DecodeWrapper(raw)
		if err == nil && !w.Expired(now, s.ttl) {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.DebugContext(ctx, "draft sweep removed stale entries", logger.Count(removed))
	}
	return removed, errors.Join(errs...)
}

func (s *Store) discard(ctx context.Context, key string, reason error) {
	s.logger.InfoContext(ctx, "discarding stored draft", logger.Key(key), logger.Error(reason))
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "draft delete failed", logger.Key(key), logger.Error(err))
	}
}
