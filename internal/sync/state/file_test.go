package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCheckpointStore_Unseeded(t *testing.T) {
	t.Parallel()

	store := NewFileCheckpointStore(t.TempDir())
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, ErrCheckpointNotSeeded)

	err = store.Set(ctx, 10)
	require.ErrorIs(t, err, ErrCheckpointNotSeeded)
}

func TestFileCheckpointStore_SeedAndSet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileCheckpointStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, 100, false))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), got)

	require.NoError(t, store.Set(ctx, 105))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(105), got)

	// A fresh store over the same directory sees the persisted value.
	reopened := NewFileCheckpointStore(dir)
	got, err = reopened.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(105), got)
}

func TestFileCheckpointStore_SeedRefusesOverwrite(t *testing.T) {
	t.Parallel()

	store := NewFileCheckpointStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, 100, false))
	err := store.Seed(ctx, 5, false)
	require.ErrorIs(t, err, ErrCheckpointExists)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), got)

	require.NoError(t, store.Seed(ctx, 5, true))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), got)
}

func TestFileCheckpointStore_CorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CheckpointFileName), []byte("garbage"), 0600))

	_, err := NewFileCheckpointStore(dir).Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCheckpointNotSeeded)
}
