package subscriptions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/feedrelay/database"
	"github.com/stacklok/feedrelay/internal/config"
)

// exerciseRegistry checks set semantics common to every implementation.
func exerciseRegistry(t *testing.T, reg Registry) {
	t.Helper()
	ctx := context.Background()

	ids, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	added, err := reg.Add(ctx, "111")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = reg.Add(ctx, "111")
	require.NoError(t, err)
	assert.False(t, added, "second add is a no-op")

	added, err = reg.Add(ctx, "222")
	require.NoError(t, err)
	assert.True(t, added)

	ids, err = reg.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"111", "222"}, ids)

	removed, err := reg.Remove(ctx, "111")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = reg.Remove(ctx, "111")
	require.NoError(t, err)
	assert.False(t, removed, "second remove is a no-op")

	removed, err = reg.Remove(ctx, "never-added")
	require.NoError(t, err)
	assert.False(t, removed)

	ids, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"222"}, ids)
}

func TestFileRegistry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exerciseRegistry(t, NewFileRegistry(dir))

	ids, err := NewFileRegistry(dir).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"222"}, ids, "state survives reopening")
}

func TestFileRegistry_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	reg := NewFileRegistry(t.TempDir())
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Add(ctx, "333")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ids, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"333"}, ids)
}

func TestDBRegistry(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	pool, tables := database.SetupTestDB(t)
	exerciseRegistry(t, NewDBRegistry(pool, tables.Subscriptions))
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(&config.Config{Storage: config.StorageConfig{Type: config.StorageTypeFile, DataDir: t.TempDir()}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &fileRegistry{}, reg)

	_, err = NewRegistry(&config.Config{Storage: config.StorageConfig{Type: config.StorageTypeDatabase}}, nil)
	assert.Error(t, err)

	_, err = NewRegistry(&config.Config{Storage: config.StorageConfig{Type: "redis"}}, nil)
	assert.Error(t, err)
}
