package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/ngena/pkg/adapters/redis"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunKVStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	err := store.Set(ctx, "263771000000", []byte(`{"state":"menu"}`), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, mr.TTL("ngena:263771000000"))

	mr.FastForward(25 * time.Hour)

	_, err = store.Get(ctx, "263771000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("bot:"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "bookmark_42", []byte("-3"), time.Hour))
	assert.True(t, mr.Exists("bot:bookmark_42"))

	require.NoError(t, store.Delete(ctx, "bookmark_42"))
	assert.False(t, mr.Exists("bot:bookmark_42"))
}

func TestRedisStore_Ping(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	assert.NoError(t, store.Ping(context.Background()))
	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}
