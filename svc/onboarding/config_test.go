package onboarding_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/config"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
	svc "github.com/rockethooks/rockethooks-app-sub001/svc/onboarding"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := svc.LoadConfig(config.WithEnvironment(map[string]string{}))
		require.NoError(t, err)
		assert.Equal(t, "onboarding_draft_", cfg.DraftPrefix)
		assert.Equal(t, "1.0.0", cfg.DraftVersion)
		assert.Equal(t, draft.DefaultTTL, cfg.DraftTTL)
		assert.Equal(t, time.Second, cfg.AutosaveDebounce)
		assert.Equal(t, svc.StorageMemory, cfg.Storage)
		assert.Equal(t, "X-User-ID", cfg.UserHeader)
		assert.Equal(t, 1024, cfg.RegistrySize)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := svc.LoadConfig(config.WithEnvironment(map[string]string{
			"ONBOARDING_STORAGE":           "sqlite",
			"ONBOARDING_DRAFT_TTL":         "24h",
			"ONBOARDING_AUTOSAVE_DEBOUNCE": "250ms",
			"ONBOARDING_POLICY_FILE":       "policy.yaml",
		}))
		require.NoError(t, err)
		assert.Equal(t, svc.StorageSQLite, cfg.Storage)
		assert.Equal(t, 24*time.Hour, cfg.DraftTTL)
		assert.Equal(t, 250*time.Millisecond, cfg.AutosaveDebounce)
		assert.Equal(t, "policy.yaml", cfg.PolicyFile)
	})

	t.Run("unsupported storage", func(t *testing.T) {
		_, err := svc.LoadConfig(config.WithEnvironment(map[string]string{"ONBOARDING_STORAGE": "s3"}))
		assert.ErrorIs(t, err, svc.ErrUnsupportedStorage)
	})

	t.Run("non positive values", func(t *testing.T) {
		_, err := svc.LoadConfig(config.WithEnvironment(map[string]string{"ONBOARDING_DRAFT_TTL": "0s"}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
		_, err = svc.LoadConfig(config.WithEnvironment(map[string]string{"ONBOARDING_REGISTRY_SIZE": "0"}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("malformed duration", func(t *testing.T) {
		_, err := svc.LoadConfig(config.WithEnvironment(map[string]string{"ONBOARDING_DRAFT_TTL": "soon"}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})
}

func TestConfig_StoreOptions(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.DraftPrefix = "p_"
	cfg.DraftVersion = "2.0.0"

	storage := draft.NewMemoryStorage()
	store := draft.NewStore(storage, draft.Schemas{"s": draft.NewSchema[map[string]any]()},
		append(cfg.StoreOptions(), draft.WithClock(func() time.Time { return now }))...)

	assert.Equal(t, "p_s", store.Key("s"))
	assert.Equal(t, cfg.DraftTTL, store.TTL())
	require.True(t, store.Save(context.Background(), "s", map[string]any{"a": 1}))

	w, err := store.Inspect(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", w.Version)
}

func roundTrip(t *testing.T, b *svc.Backend) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Healthcheck(ctx))

	require.NoError(t, b.Storage.Set(ctx, "onboarding_draft_u_1:organization", []byte(`{"v":1}`)))
	got, err := b.Storage.Get(ctx, "onboarding_draft_u_1:organization")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(got))

	keys, err := b.Storage.Keys(ctx, "onboarding_draft_u_1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"onboarding_draft_u_1:organization"}, keys)

	require.NoError(t, b.Storage.Delete(ctx, "onboarding_draft_u_1:organization"))
	got, err = b.Storage.Get(ctx, "onboarding_draft_u_1:organization")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := testConfig()
		b, err := svc.OpenStorage(ctx, cfg, logger.Discard())
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		assert.Equal(t, svc.StorageMemory, b.Name)
		roundTrip(t, b)
	})

	t.Run("file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage = svc.StorageFile
		cfg.FileDir = t.TempDir()
		b, err := svc.OpenStorage(ctx, cfg, logger.Discard())
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		roundTrip(t, b)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage = svc.StorageSQLite
		cfg.SQLitePath = filepath.Join(t.TempDir(), "drafts.db")
		b, err := svc.OpenStorage(ctx, cfg, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		roundTrip(t, b)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.Storage = svc.StorageRedis
		b, err := svc.OpenStorage(ctx, cfg, logger.Discard(), config.WithEnvironment(map[string]string{
			"ONBOARDING_REDIS_URL": "redis://" + mr.Addr() + "/0",
		}))
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		roundTrip(t, b)
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage = "s3"
		_, err := svc.OpenStorage(ctx, cfg, logger.Discard())
		assert.ErrorIs(t, err, svc.ErrUnsupportedStorage)
	})
}
