package session

import (
	"testing"

	"github.com/groupplan/groupplan/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_AppendAndGet(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Create("s1")
	require.NoError(t, err)

	require.NoError(t, store.AppendEvent("s1", core.NewUserMessageEvent("s1", "hello")))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	events := sess.GetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "user", events[0].Author)
}

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create("s1")
	require.NoError(t, err)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	require.NoError(t, sess.AddEvent(core.NewUserMessageEvent("s1", "local only")))

	again, err := store.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, again.GetEvents(), "mutating a returned clone must not affect the store")
}

func TestInMemoryStore_TerminateBlocksAppends(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create("s1")
	require.NoError(t, err)

	require.NoError(t, store.Terminate("s1"))
	err = store.AppendEvent("s1", core.NewUserMessageEvent("s1", "too late"))
	assert.ErrorIs(t, err, core.ErrSessionTerminated)
}

func TestInMemoryStore_ApplyDelta(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.ApplyDelta("s1", map[string]interface{}{"plan_path": "/tmp/p.txt"}))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	v, ok := sess.GetState("plan_path")
	require.True(t, ok)
	assert.Equal(t, "/tmp/p.txt", v)
}
