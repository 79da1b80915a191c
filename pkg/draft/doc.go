// Package draft persists partially completed onboarding steps.
//
// Each step's data is stored under "{prefix}{step}" inside a Wrapper that
// records the save time (epoch milliseconds) and a version string. Drafts are
// retained for a fixed window (seven days by default); expiry is evaluated
// lazily on read, on every save (for the other steps) and by an explicit
// Sweep, never by a background timer.
//
// Every read is gated by the step's current Schema. Data that no longer
// decodes, misses a required field or fails its Validate method is treated
// as absent and deleted, which lets step shapes evolve without migrations.
//
// # Storage
//
// Storage is a minimal key/value interface. MemoryStorage and FileStorage
// live here; Redis, SQLite, PostgreSQL and MongoDB backends live in their own
// packages. The storagetest subpackage holds the shared contract suite.
//
// # Auto-save
//
// AutoSaver coalesces rapid updates into one save after a debounce interval.
// A generation counter discards superseded timers, and Close guarantees that
// no state update or callback happens afterwards.
//
//	saver := draft.NewAutoSaver(store, "profile", draft.WithDebounce(time.Second))
//	defer saver.Close()
//	saver.Update(form)
package draft
