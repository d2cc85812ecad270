package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestPublisher_Sync(t *testing.T) {
	st := NewInMemoryStore()
	p := NewPublisher(st)

	require.NoError(t, p.Emit(context.Background(), Event{
		Actor:  "app/123",
		Action: ActionSessionConnected,
		Target: "acme",
	}))

	events, err := st.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionSessionConnected, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	st := NewInMemoryStore()
	p := NewPublisher(st, WithAsyncBuffer(16))

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Emit(context.Background(), Event{
			Actor:  "Octocat",
			Action: ActionIdentitySet,
		}))
	}
	p.Close()

	events, err := st.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestBoltStore_RecentNewestFirst(t *testing.T) {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "audit.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := NewBoltStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	for _, action := range []Action{ActionSessionConnected, ActionIdentitySet, ActionSessionDisconnected} {
		require.NoError(t, st.Append(ctx, Event{Actor: "app/123", Action: action}))
	}

	events, err := st.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionSessionDisconnected, events[0].Action)
	assert.Equal(t, ActionIdentitySet, events[1].Action)
}
