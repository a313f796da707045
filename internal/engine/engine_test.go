package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, partitions, cacheSize int) *Engine {
	e, err := New(Config{
		DataDir:    t.TempDir(),
		CacheSize:  cacheSize,
		Partitions: partitions,
		QueueDepth: 16,
	})
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { e.Stop(context.Background()) })
	return e
}

func TestPutGetAcrossPartitions(t *testing.T) {
	e := newTestEngine(t, 2, 10)
	ctx := context.Background()

	require.NoError(t, e.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, e.Put(ctx, []byte("b"), []byte("2")))

	v, ok, err := e.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", string(v))

	v, ok, err = e.Get(ctx, []byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", string(v))
}

// TestListKeysAllDisjointAndSorted checks that list_keys_all returns all
// live keys in sorted order with no duplicates, across partitions.
func TestListKeysAllDisjointAndSorted(t *testing.T) {
	e := newTestEngine(t, 4, 10)
	ctx := context.Background()

	keys := []string{"zebra", "apple", "mango", "banana", "kiwi"}
	for _, k := range keys {
		require.NoError(t, e.Put(ctx, []byte(k), []byte("v")))
	}

	got, err := e.ListKeysAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(keys))

	seen := make(map[string]bool)
	for _, k := range got {
		require.False(t, seen[k], "duplicate key %q in list_keys_all", k)
		seen[k] = true
	}
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1], got[i], "expected ascending order")
	}
}

func TestPartitionCountMatchesConfig(t *testing.T) {
	e := newTestEngine(t, 3, 10)
	require.Equal(t, 3, e.PartitionCount())
}

func TestValidationErrorSurfacesAsSuch(t *testing.T) {
	e := newTestEngine(t, 2, 10)
	ctx := context.Background()

	err := e.Put(ctx, []byte{}, []byte("v"))
	require.Error(t, err)
	require.True(t, ValidationError(err))
}

// TestRestartPreservesData checks that stopping and starting a fresh
// engine against the same data dir reproduces the index.
func TestRestartPreservesData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	e1, err := New(Config{DataDir: dir, CacheSize: 10, Partitions: 2, QueueDepth: 16})
	require.NoError(t, err)
	require.NoError(t, e1.Start(ctx))
	require.NoError(t, e1.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, e1.Put(ctx, []byte("b"), []byte("2")))
	e1.Stop(ctx)

	e2, err := New(Config{DataDir: dir, CacheSize: 10, Partitions: 2, QueueDepth: 16})
	require.NoError(t, err)
	require.NoError(t, e2.Start(ctx))
	defer e2.Stop(ctx)

	got, err := e2.ListKeysAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got)
}
