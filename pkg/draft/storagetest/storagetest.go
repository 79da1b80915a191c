// Package storagetest provides a contract suite every draft.Storage backend
// must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
)

// Run exercises storage against the draft.Storage contract. Keys are
// namespaced per run so the suite can share a database with other tests.
func Run(t *testing.T, storage draft.Storage) {
	t.Helper()

	ctx := context.Background()
	ns := fmt.Sprintf("contract_%d_", time.Now().UnixNano())

	t.Run("Get missing returns nil", func(t *testing.T) {
		val, err := storage.Get(ctx, ns+"missing")
		require.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("Set and Get", func(t *testing.T) {
		key := ns + "organization"
		want := []byte(`{"data":{"name":"Acme"},"timestamp":1,"version":"1.0.0"}`)

		require.NoError(t, storage.Set(ctx, key, want))
		got, err := storage.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Set overwrites", func(t *testing.T) {
		key := ns + "profile"
		require.NoError(t, storage.Set(ctx, key, []byte("first")))
		require.NoError(t, storage.Set(ctx, key, []byte("second")))

		got, err := storage.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("returned bytes are not aliased", func(t *testing.T) {
		key := ns + "alias"
		val := []byte("value")
		require.NoError(t, storage.Set(ctx, key, val))
		val[0] = 'X'

		got, err := storage.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		key := ns + "preferences"
		require.NoError(t, storage.Set(ctx, key, []byte("{}")))
		require.NoError(t, storage.Delete(ctx, key))
		require.NoError(t, storage.Delete(ctx, key))

		got, err := storage.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Keys filters by prefix", func(t *testing.T) {
		scoped := ns + "keys_"
		require.NoError(t, storage.Set(ctx, scoped+"a", []byte("1")))
		require.NoError(t, storage.Set(ctx, scoped+"b", []byte("2")))
		require.NoError(t, storage.Set(ctx, ns+"other", []byte("3")))

		keys, err := storage.Keys(ctx, scoped)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{scoped + "a", scoped + "b"}, keys)

		none, err := storage.Keys(ctx, ns+"nothing_here_")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("keys with path characters", func(t *testing.T) {
		key := ns + "user/42:profile"
		require.NoError(t, storage.Set(ctx, key, []byte("ok")))

		got, err := storage.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("ok"), got)

		keys, err := storage.Keys(ctx, ns+"user/")
		require.NoError(t, err)
		assert.Equal(t, []string{key}, keys)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		key := ns + "race"
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, storage.Set(ctx, key, []byte(fmt.Sprintf("writer-%d", i))))
			}()
		}
		wg.Wait()

		got, err := storage.Get(ctx, key)
		require.NoError(t, err)
		assert.Contains(t, string(got), "writer-")
	})

	t.Run("Store round trip", func(t *testing.T) {
		type org struct {
			Name string `json:"name"`
		}
		store := draft.NewStore(storage, draft.Schemas{
			"organization": draft.NewSchema[org]("name"),
		}, draft.WithPrefix(ns+"store_"))

		require.True(t, store.Save(ctx, "organization", org{Name: "Acme"}))
		got, ok := draft.Get[org](ctx, store, "organization")
		require.True(t, ok)
		assert.Equal(t, "Acme", got.Name)

		require.NoError(t, store.Clear(ctx))
		_, ok = draft.Get[org](ctx, store, "organization")
		assert.False(t, ok)
	})
}
