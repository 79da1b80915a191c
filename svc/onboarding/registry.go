package onboarding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/cache"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/identity"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
	ob "github.com/rockethooks/rockethooks-app-sub001/pkg/onboarding"
)

// Factory creates and starts the flow of a user.
type Factory func(ctx context.Context, userID string) (*Flow, error)

// Registry keeps the most recently used flows in memory. Evicted flows are
// closed, which cancels their pending auto-saves; their drafts stay in
// storage and are picked up again by the next flow of that user.
type Registry struct {
	flows   *cache.LRU[string, *Flow]
	factory Factory
	logger  *slog.Logger
}

func NewRegistry(size int, factory Factory, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("onboarding_registry"))
	return &Registry{
		factory: factory,
		logger:  log,
		flows: cache.NewLRU(size, cache.WithEvictCallback(func(userID string, f *Flow) {
			log.Debug("closing onboarding flow", logger.UserID(userID))
			f.Close()
		})),
	}
}

// Get returns the flow of userID, creating it when needed.
func (r *Registry) Get(ctx context.Context, userID string) (*Flow, error) {
	if !ValidUserID(userID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return r.flows.GetOrCreate(userID, func() (*Flow, error) {
		return r.factory(ctx, userID)
	})
}

// Remove closes and forgets the flow of userID.
func (r *Registry) Remove(userID string) bool {
	_, ok := r.flows.Remove(userID)
	return ok
}

func (r *Registry) Len() int {
	return r.flows.Len()
}

// Close closes every flow.
func (r *Registry) Close() {
	r.flows.Clear()
}

// NewFactory builds per-user flows on a shared storage. Each user gets a
// draft store under UserDraftPrefix and a signed-in identity, so the flow
// begins as soon as it is created.
func NewFactory(storage draft.Storage, cfg Config, base Deps, opts ...Option) Factory {
	return func(ctx context.Context, userID string) (*Flow, error) {
		storeOpts := append(cfg.StoreOptions(),
			draft.WithPrefix(UserDraftPrefix(cfg.DraftPrefix, userID)),
			draft.WithLogger(base.Logger),
		)

		deps := base
		deps.Store = draft.NewStore(storage, ob.Schemas(), storeOpts...)
		deps.Identity = identity.NewMemoryProvider(identity.AuthState{
			IsReady:    true,
			IsSignedIn: true,
			UserID:     userID,
		})

		flowOpts := append([]Option{
			WithAutoSaveDebounce(cfg.AutosaveDebounce),
			WithGuardTimeout(cfg.GuardTimeout),
		}, opts...)

		f, err := New(deps, flowOpts...)
		if err != nil {
			return nil, err
		}
		if err := f.Start(ctx); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}
}
