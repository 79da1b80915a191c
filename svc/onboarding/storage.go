package onboarding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/config"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/mongo"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/pg"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/redis"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/sqlite"
)

// envPrefix namespaces the backend configs, e.g. ONBOARDING_REDIS_URL.
const envPrefix = "ONBOARDING_"

// Backend is an opened draft storage.
type Backend struct {
	Name    string
	Storage draft.Storage
	// Close releases connections. Never nil.
	Close func() error
	// Healthcheck pings the backend. Never nil.
	Healthcheck func(context.Context) error
}

func noop() error { return nil }

func alwaysHealthy(context.Context) error { return nil }

// OpenStorage connects the backend selected by cfg.Storage. Backend settings
// are read from the environment with the ONBOARDING_ prefix; opts are
// passed to config.Load after it.
func OpenStorage(ctx context.Context, cfg Config, log *slog.Logger, opts ...config.Option) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	opts = append([]config.Option{config.WithPrefix(envPrefix)}, opts...)
	b := &Backend{Name: cfg.Storage, Close: noop, Healthcheck: alwaysHealthy}

	switch cfg.Storage {
	case StorageMemory:
		b.Storage = draft.NewMemoryStorage()

	case StorageFile:
		b.Storage = draft.NewFileStorage(cfg.FileDir)

	case StorageSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.Storage, b.Close, b.Healthcheck = s, s.Close, s.Ping

	case StorageRedis:
		var rc redis.Config
		if err := config.Load(&rc, opts...); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, rc)
		if err != nil {
			return nil, err
		}
		s := redis.NewStorageWithConfig(client, rc)
		b.Storage, b.Close, b.Healthcheck = s, s.Close, redis.Healthcheck(client)

	case StoragePostgres:
		var pc pg.Config
		if err := config.Load(&pc, opts...); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pc)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, pc, log); err != nil {
			pool.Close()
			return nil, err
		}
		s, err := pg.NewStorage(pool, pc.DraftsTable)
		if err != nil {
			pool.Close()
			return nil, err
		}
		b.Storage, b.Healthcheck = s, pg.Healthcheck(pool)
		b.Close = func() error { pool.Close(); return nil }

	case StorageMongo:
		var mc mongo.Config
		if err := config.Load(&mc, opts...); err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, mc)
		if err != nil {
			return nil, err
		}
		b.Storage, b.Healthcheck = mongo.NewStorageFromConfig(client, mc), mongo.Healthcheck(client)
		b.Close = func() error { return client.Disconnect(context.Background()) }

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStorage, cfg.Storage)
	}

	log.InfoContext(ctx, "draft storage ready", slog.String("backend", b.Name))
	return b, nil
}
