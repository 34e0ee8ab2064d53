package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ngena/pkg/adapters/memory"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "263771000000"

func TestStore_LoadDefaultsToMenu(t *testing.T) {
	store := session.NewStore(memory.NewStore())

	sess, found, err := store.Get(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, sess.Data)

	sess, err = store.Load(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, domain.To(domain.StateMenu), sess.State)
	assert.NotNil(t, sess.Data)
}

func TestStore_SetOverwritesWholeSession(t *testing.T) {
	store := session.NewStore(memory.NewStore())
	ctx := context.Background()

	first := domain.NewSession(domain.StateRegister)
	first.Data["first_name"] = "Jane"
	require.NoError(t, store.Set(ctx, user, first))

	require.NoError(t, store.Set(ctx, user, domain.Session{State: domain.OneOf(domain.StateHelp, domain.StateAbout)}))

	got, err := store.Load(ctx, user)
	require.NoError(t, err)
	assert.True(t, got.State.IsList())
	assert.Empty(t, got.Data, "set must not merge data")
}

func TestStore_NullDataDecodesEmpty(t *testing.T) {
	kv := memory.NewStore()
	store := session.NewStore(kv)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, user, []byte(`{"state":"menu","data":null}`), 0))

	data, err := store.Data(ctx, user)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestStore_TTL(t *testing.T) {
	now := time.Now()
	kv := memory.NewStore(memory.WithClock(func() time.Time { return now }))
	store := session.NewStore(kv)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, user, domain.NewSession(domain.StateEnroll)))
	now = now.Add(session.DefaultTTL)

	_, found, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_PurgeRemovesAllDerivedKeys(t *testing.T) {
	kv := memory.NewStore()
	store := session.NewStore(kv)
	ctx := context.Background()

	for _, k := range session.DerivedKeys(user) {
		require.NoError(t, kv.Set(ctx, k, []byte(`{}`), 0))
	}
	require.NoError(t, kv.Set(ctx, "someone-else", []byte(`{}`), 0))

	require.NoError(t, store.Purge(ctx, user))

	assert.Equal(t, []string{"someone-else"}, kv.Keys())
}

func TestStore_Nav(t *testing.T) {
	store := session.NewStore(memory.NewStore())
	ctx := context.Background()

	_, found, err := store.Nav(ctx, user)
	require.NoError(t, err)
	assert.False(t, found)

	nav := domain.NavControl{MessageID: "wamid.1", FirstStep: true, Type: domain.NavTypeTutorial, ResponseType: domain.ResponseTutorial}
	require.NoError(t, store.SetNav(ctx, user, nav))

	got, found, err := store.Nav(ctx, user)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, nav, got)
}

func TestDerivedKeys(t *testing.T) {
	assert.Equal(t, []string{
		"42", "42_quiz_session", "42_history", "bookmark_42", "42_nav",
	}, session.DerivedKeys("42"))
}

func TestStore_SnapshotRestore(t *testing.T) {
	kv := memory.NewStore()
	store := session.NewStore(kv)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, user, domain.NewSession(domain.StateCourses)))
	require.NoError(t, kv.Set(ctx, session.HistoryKey(user), []byte(`[]`), 0))

	snap, err := store.Snapshot(ctx, user)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, user, domain.NewSession(domain.StateProfile)))
	require.NoError(t, kv.Set(ctx, session.BookmarkKey(user), []byte(`-3`), 0))
	require.NoError(t, kv.Delete(ctx, session.HistoryKey(user)))

	require.NoError(t, store.Restore(ctx, snap))

	sess, found, err := store.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.To(domain.StateCourses), sess.State)

	raw, err := kv.Get(ctx, session.HistoryKey(user))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))

	_, err = kv.Get(ctx, session.BookmarkKey(user))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
