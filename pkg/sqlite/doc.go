// Package sqlite stores onboarding drafts in a SQLite database using the
// pure-Go modernc.org/sqlite driver, so no cgo toolchain is required.
//
//	storage, err := sqlite.Open(ctx, "onboarding.db")
//	if err != nil {
//		return err
//	}
//	defer storage.Close()
//	store := draft.NewStore(storage, schemas)
package sqlite
