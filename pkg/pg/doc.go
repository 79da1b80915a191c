// Package pg connects to PostgreSQL through pgx/v5 and stores onboarding
// drafts in a single key/value table.
//
// Connect opens a *pgxpool.Pool with retries, Migrate applies the embedded
// goose migrations (see migrations/), Healthcheck adapts the pool to
// readiness probes and Storage implements draft.Storage.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	storage, err := pg.NewStorage(pool, cfg.DraftsTable)
//
// The migration creates onboarding_drafts; a custom DraftsTable must be
// created by the caller.
package pg
