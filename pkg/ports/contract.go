package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVStoreContract runs a suite of tests to verify that a KVStore implementation
// adheres to the defined interface contract.
func RunKVStoreContract(t *testing.T, store KVStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Set and Get", func(t *testing.T) {
		err := store.Set(ctx, key, []byte(`{"state":"menu"}`), time.Hour)
		require.NoError(t, err, "Set should not return error")

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.JSONEq(t, `{"state":"menu"}`, string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte("first"), time.Hour))
		require.NoError(t, store.Set(ctx, key, []byte("second"), time.Hour))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		other := key + "_history"
		require.NoError(t, store.Set(ctx, key, []byte("a"), time.Hour))
		require.NoError(t, store.Set(ctx, other, []byte("b"), time.Hour))

		err := store.Delete(ctx, key, other, "missing-"+key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound, "Get after Delete should return ErrNotFound")
		_, err = store.Get(ctx, other)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete Nothing", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx))
	})
}
