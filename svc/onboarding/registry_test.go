package onboarding_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
	ob "github.com/rockethooks/rockethooks-app-sub001/pkg/onboarding"
	svc "github.com/rockethooks/rockethooks-app-sub001/svc/onboarding"
)

func testConfig() svc.Config {
	return svc.Config{
		DraftPrefix:      "onboarding_draft_",
		DraftVersion:     "1.0.0",
		DraftTTL:         draft.DefaultTTL,
		AutosaveDebounce: 10 * time.Millisecond,
		Storage:          svc.StorageMemory,
		RegistrySize:     2,
		GuardTimeout:     time.Second,
	}
}

func newRegistry(t *testing.T, storage draft.Storage, size int) *svc.Registry {
	t.Helper()
	cfg := testConfig()
	factory := svc.NewFactory(storage, cfg, svc.Deps{Logger: logger.Discard()})
	r := svc.NewRegistry(size, factory, logger.Discard())
	t.Cleanup(r.Close)
	return r
}

func TestRegistry_CreatesStartedFlows(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, draft.NewMemoryStorage(), 2)

	f, err := r.Get(ctx, "u_1")
	require.NoError(t, err)
	assert.Equal(t, ob.StateOrganizationSetup, f.State())
	assert.Equal(t, "u_1", f.Context().UserID)

	again, err := r.Get(ctx, "u_1")
	require.NoError(t, err)
	assert.Same(t, f, again)
	assert.Equal(t, 1, r.Len())

	_, err = r.Get(ctx, "bad user")
	assert.ErrorIs(t, err, svc.ErrInvalidUserID)
}

func TestRegistry_EvictionClosesFlows(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, draft.NewMemoryStorage(), 2)

	first, err := r.Get(ctx, "u_1")
	require.NoError(t, err)
	_, err = r.Get(ctx, "u_2")
	require.NoError(t, err)
	_, err = r.Get(ctx, "u_3")
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	_, err = first.AutoSaver(ob.StepOrganization)
	assert.ErrorIs(t, err, svc.ErrClosed)

	replacement, err := r.Get(ctx, "u_1")
	require.NoError(t, err)
	assert.NotSame(t, first, replacement)

	assert.True(t, r.Remove("u_1"))
	assert.False(t, r.Remove("u_1"))
	_, err = replacement.Skip(ctx)
	assert.ErrorIs(t, err, svc.ErrClosed)
}

func TestRegistry_DraftsSurviveEviction(t *testing.T) {
	ctx := context.Background()
	storage := draft.NewMemoryStorage()
	r := newRegistry(t, storage, 1)

	f, err := r.Get(ctx, "u_1")
	require.NoError(t, err)
	saver, err := f.AutoSaver(ob.StepOrganization)
	require.NoError(t, err)
	saver.Update(map[string]any{"name": "Acme"})
	require.True(t, saver.ForceSave(ctx))

	_, err = r.Get(ctx, "u_2")
	require.NoError(t, err)

	f, err = r.Get(ctx, "u_1")
	require.NoError(t, err)
	var d ob.OrganizationDraft
	require.True(t, f.Draft(ctx, ob.StepOrganization, &d))
	assert.Equal(t, "Acme", d.Name)

	keys, err := storage.Keys(ctx, "onboarding_draft_")
	require.NoError(t, err)
	assert.Equal(t, []string{"onboarding_draft_u_1:organization"}, keys)
}

func TestRegistry_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, draft.NewMemoryStorage(), 4)

	a, err := r.Get(ctx, "u_1")
	require.NoError(t, err)
	b, err := r.Get(ctx, "u_10")
	require.NoError(t, err)

	saver, err := b.AutoSaver(ob.StepOrganization)
	require.NoError(t, err)
	saver.Update(map[string]any{"name": "Beta"})
	require.True(t, saver.ForceSave(ctx))

	ok, err := a.Reset(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, found := b.DraftRaw(ctx, ob.StepOrganization)
	assert.True(t, found, "resetting u_1 must not clear u_10")
}

func TestRegistry_FactoryErrors(t *testing.T) {
	boom := errors.New("boom")
	r := svc.NewRegistry(1, func(context.Context, string) (*svc.Flow, error) { return nil, boom }, nil)
	_, err := r.Get(context.Background(), "u_1")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, r.Len())
}
