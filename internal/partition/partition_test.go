package partition

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/kvstore/internal/walog"
)

func replayed(t *testing.T, dir string) []walog.Record {
	var records []walog.Record
	require.NoError(t, walog.Replay(dir, 0, func(r walog.Record) { records = append(records, r) }))
	return records
}

func newStarted(t *testing.T, dir string, cacheSize int) *Store {
	s, err := New(0, dir, cacheSize)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

// TestBoundaryScenario1 puts two keys and gets both back.
func TestBoundaryScenario1(t *testing.T) {
	s := newStarted(t, t.TempDir(), 10)

	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("2")))

	v, ok, err := s.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", string(v))

	v, ok, err = s.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", string(v))
}

// TestBoundaryScenario2 overwrites a key and checks the new value wins,
// with the log recording exactly two PUT records in order.
func TestBoundaryScenario2(t *testing.T) {
	dir := t.TempDir()
	s := newStarted(t, dir, 10)

	require.NoError(t, s.Put([]byte("k"), []byte("v1")))
	require.NoError(t, s.Put([]byte("k"), []byte("v2")))

	v, ok, err := s.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", string(v))
	require.Equal(t, uint64(2), s.Stats().Puts)

	records := replayed(t, dir)
	require.Len(t, records, 2)
	require.Equal(t, walog.OpPut, records[0].Op)
	require.Equal(t, "v1", string(records[0].Value))
	require.Equal(t, walog.OpPut, records[1].Op)
	require.Equal(t, "v2", string(records[1].Value))
}

// TestBoundaryScenario3 removes a key and confirms a later get misses.
func TestBoundaryScenario3(t *testing.T) {
	s := newStarted(t, t.TempDir(), 10)

	require.NoError(t, s.Put([]byte("k"), []byte("v")))
	require.NoError(t, s.Remove([]byte("k")))

	_, ok, err := s.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

// TestBoundaryScenario4 checks that cache eviction leaves the index
// intact, and a subsequent Get repopulates the cache.
func TestBoundaryScenario4(t *testing.T) {
	s := newStarted(t, t.TempDir(), 2)

	require.NoError(t, s.Put([]byte("x"), []byte("1")))
	require.NoError(t, s.Put([]byte("y"), []byte("2")))
	_, _, err := s.Get([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, s.Put([]byte("z"), []byte("3")))

	cacheKeys := s.CacheKeys()
	require.ElementsMatch(t, []string{"x", "z"}, cacheKeys)
	require.NotContains(t, cacheKeys, "y")

	v, ok, err := s.Get([]byte("y"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", string(v))
	require.Contains(t, s.CacheKeys(), "y")
}

// TestBoundaryScenario5 checks crash recovery: a restart without a clean
// stop still replays everything written before the crash.
func TestBoundaryScenario5(t *testing.T) {
	dir := t.TempDir()
	s, err := New(0, dir, 10)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("2")))
	// no clean Stop: simulates a crash, leaving the log file as-is

	s2, err := New(0, dir, 10)
	require.NoError(t, err)
	require.NoError(t, s2.Start())
	defer s2.Stop()

	v, ok, err := s2.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", string(v))

	v, ok, err = s2.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", string(v))

	require.ElementsMatch(t, []string{"a", "b"}, s2.ListKeys())
}

// TestBoundaryScenario7 checks that an over-length key is rejected and
// the index is left unchanged.
func TestBoundaryScenario7(t *testing.T) {
	s := newStarted(t, t.TempDir(), 10)

	key := make([]byte, 256)
	for i := range key {
		key[i] = 'x'
	}
	err := s.Put(key, []byte("v"))
	require.Error(t, err)
	require.Empty(t, s.ListKeys())
}

func TestEmptyKeyRejected(t *testing.T) {
	s := newStarted(t, t.TempDir(), 10)
	require.Error(t, s.Put([]byte{}, []byte("v")))
	_, _, err := s.Get([]byte{})
	require.Error(t, err)
	require.Error(t, s.Remove([]byte{}))
}

// TestRestartEquivalence checks that stop then start reproduces the same
// index.
func TestRestartEquivalence(t *testing.T) {
	dir := t.TempDir()
	s, err := New(0, dir, 10)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("2")))
	require.NoError(t, s.Remove([]byte("a")))
	before := s.ListKeys()
	require.NoError(t, s.Stop())

	s2, err := New(0, dir, 10)
	require.NoError(t, err)
	require.NoError(t, s2.Start())
	defer s2.Stop()

	require.Equal(t, before, s2.ListKeys())
}

// TestRemoveOfAbsentKeyIsNotAnErrorAndIsLogged checks that removing an
// absent key is idempotent and still appends a DELETE record.
func TestRemoveOfAbsentKeyIsNotAnErrorAndIsLogged(t *testing.T) {
	dir := t.TempDir()
	s := newStarted(t, dir, 10)
	require.NoError(t, s.Remove([]byte("never-existed")))
	require.Equal(t, uint64(1), s.Stats().Removes)

	records := replayed(t, dir)
	require.Len(t, records, 1)
	require.Equal(t, walog.OpDelete, records[0].Op)
	require.Equal(t, "never-existed", string(records[0].Key))
}

func TestListKeysSortedAscending(t *testing.T) {
	s := newStarted(t, t.TempDir(), 10)
	require.NoError(t, s.Put([]byte("banana"), []byte("1")))
	require.NoError(t, s.Put([]byte("apple"), []byte("1")))
	require.NoError(t, s.Put([]byte("cherry"), []byte("1")))

	require.Equal(t, []string{"apple", "banana", "cherry"}, s.ListKeys())
}
