package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/aretw0/ngena/pkg/adapters/memory"
	"github.com/aretw0/ngena/pkg/persistence/middleware"
	"github.com/aretw0/ngena/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunKVStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secure := mw(underlying)
	ctx := context.Background()

	plain := []byte(`{"state":"register","data":{"email":"jane@example.com"}}`)
	require.NoError(t, secure.Set(ctx, "263771000000", plain, time.Hour))

	stored, err := underlying.Get(ctx, "263771000000")
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "jane@example.com")
	assert.Contains(t, string(stored), "__encrypted__")

	loaded, err := secure.Get(ctx, "263771000000")
	require.NoError(t, err)
	assert.JSONEq(t, string(plain), string(loaded))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Set(ctx, "k", []byte("old"), 0))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	got, err := newStore.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	require.NoError(t, newStore.Set(ctx, "k", []byte("new"), 0))
	_, err = oldStore.Get(ctx, "k")
	assert.Error(t, err, "old key alone must not decrypt values written with the new key")
}

func TestEncryptionMiddleware_RejectsPlainValues(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, underlying.Set(ctx, "k", []byte(`{"state":"menu"}`), 0))
	_, err := secure.Get(ctx, "k")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)
}
