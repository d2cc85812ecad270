package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "mode")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "mode", "app"))
	require.NoError(t, s.Set(ctx, "org", "acme"))

	mode, err := s.Get(ctx, "mode")
	require.NoError(t, err)
	assert.Equal(t, "app", mode)

	require.NoError(t, s.Set(ctx, "mode", "token"))
	mode, err = s.Get(ctx, "mode")
	require.NoError(t, err)
	assert.Equal(t, "token", mode, "set must overwrite")

	require.NoError(t, s.Delete(ctx, "mode"))
	_, err = s.Get(ctx, "mode")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete(ctx, "mode"))

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx, "org")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore(t *testing.T) {
	runStoreContract(t, NewInMemoryStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runStoreContract(t, s)
	assert.NoError(t, s.Ping())
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "org", "acme"))
	require.NoError(t, s.Close())

	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	org, err := reopened.Get(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, "acme", org)
}
