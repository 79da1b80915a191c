// Package redis connects to Redis and exposes it as a draft storage backend.
//
// Connect retries the initial ping according to Config, Healthcheck adapts a
// client to liveness probes and Storage implements draft.Storage on top of
// plain string keys, listing them with SCAN.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg, config.WithPrefix("ONBOARDING_"))
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := draft.NewStore(redis.NewStorageWithConfig(client, cfg), schemas)
package redis
