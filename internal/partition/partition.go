// Package partition implements one logical KV partition: the in-memory
// index, the LRU cache in front of it, and the append-only log behind it.
// A Store owns all three exclusively. Nothing outside the execution
// context that calls its methods may observe or mutate them directly.
package partition

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dreamware/kvstore/internal/apperrors"
	"github.com/dreamware/kvstore/internal/lru"
	"github.com/dreamware/kvstore/internal/walog"
)

// MaxKeyLen is the largest key length the store accepts.
const MaxKeyLen = 255

// Store is one partition's index, cache, and log, plus the bookkeeping
// behind its operation statistics. It is not safe for concurrent use by
// more than one goroutine. The router confines each Store to a single
// execution context, which lets Start/Stop/Get/Put/Remove/ListKeys be
// implemented without internal locking.
type Store struct {
	id        int
	dataDir   string
	cacheSize int

	cache *lru.Cache
	index map[string][]byte
	log   *walog.Log

	stats atomicStats
}

// Stats is a point-in-time snapshot of a partition's operation counters,
// surfaced through the Prometheus collector.
type Stats struct {
	Gets      uint64
	Puts      uint64
	Removes   uint64
	Evictions uint64
}

// atomicStats holds the same counters as Stats but updated with atomic
// instructions, so Stats() can be read from a goroutine other than the
// partition's own execution context (the metrics scraper) without taking
// a lock.
type atomicStats struct {
	gets      uint64
	puts      uint64
	removes   uint64
	evictions uint64
}

// New constructs a partition Store. Start must be called before the
// store is used.
func New(id int, dataDir string, cacheSize int) (*Store, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("partition %d: %w", id, err)
	}
	return &Store{
		id:        id,
		dataDir:   dataDir,
		cacheSize: cacheSize,
		cache:     cache,
		index:     make(map[string][]byte),
	}, nil
}

// ID returns the partition's identifier.
func (s *Store) ID() int { return s.id }

// Start ensures the data directory exists, replays the partition's log to
// rebuild the index, and opens the log for append. It is idempotent: a
// second call is a no-op once the log is open.
func (s *Store) Start() error {
	if s.log != nil {
		return nil
	}

	if err := walog.Replay(s.dataDir, s.id, func(rec walog.Record) {
		switch rec.Op {
		case walog.OpPut:
			s.index[string(rec.Key)] = rec.Value
		case walog.OpDelete:
			delete(s.index, string(rec.Key))
		}
	}); err != nil {
		return apperrors.Wrap(apperrors.KindReplay, fmt.Sprintf("partition %d: replay failed", s.id), err)
	}

	l, err := walog.Open(s.dataDir, s.id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("partition %d: open log", s.id), err)
	}
	s.log = l
	return nil
}

// Stop flushes the log and closes its file handle. Shutdown must not
// fail, so errors during close are not treated as fatal, but they are
// returned so the caller can log them.
func (s *Store) Stop() error {
	if s.log == nil {
		return nil
	}
	err := s.log.Close()
	s.log = nil
	if err != nil {
		return apperrors.Wrap(apperrors.KindShutdown, fmt.Sprintf("partition %d: close log", s.id), err)
	}
	return nil
}

// Get looks up key, consulting the cache first and falling back to the
// index on a miss, populating the cache before returning. It reports
// (nil, false) if the key is absent, and a validation error if the key
// is empty or exceeds MaxKeyLen.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	atomic.AddUint64(&s.stats.gets, 1)

	k := string(key)
	if v, ok := s.cache.Get(k); ok {
		return v, true, nil
	}

	v, ok := s.index[k]
	if !ok {
		return nil, false, nil
	}
	s.promoteToCache(k, v)
	return v, true, nil
}

// Put validates the key, installs value in the cache and index, then
// appends a PUT record to the log, returning success only once the log
// append has flushed. On an IO failure the in-memory mutation is rolled
// back, so the index never diverges from what the log can reproduce.
func (s *Store) Put(key, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	atomic.AddUint64(&s.stats.puts, 1)

	k := string(key)
	prevValue, hadPrev := s.index[k]

	s.index[k] = value
	s.promoteToCache(k, value)

	if err := s.log.AppendPut(key, value, time.Now()); err != nil {
		if hadPrev {
			s.index[k] = prevValue
			s.cache.Put(k, prevValue)
		} else {
			delete(s.index, k)
			s.cache.Remove(k)
		}
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("partition %d: put %q", s.id, k), err)
	}
	return nil
}

// Remove erases key from the cache and index, then appends a DELETE
// record, returning success only after flush. Removing an absent key is
// not an error and still writes a DELETE record; the log stays
// idempotent under replay. On IO failure the in-memory state is rolled
// back to what it was before the call.
func (s *Store) Remove(key []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	atomic.AddUint64(&s.stats.removes, 1)

	k := string(key)
	prevValue, hadPrev := s.index[k]

	delete(s.index, k)
	s.cache.Remove(k)

	if err := s.log.AppendDelete(key, time.Now()); err != nil {
		if hadPrev {
			s.index[k] = prevValue
			s.cache.Put(k, prevValue)
		}
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("partition %d: remove %q", s.id, k), err)
	}
	return nil
}

// ListKeys snapshots the index and returns its keys sorted ascending by
// raw byte value.
func (s *Store) ListKeys() []string {
	keys := make([]string, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats returns a snapshot of the partition's operation counters.
func (s *Store) Stats() Stats {
	return Stats{
		Gets:      atomic.LoadUint64(&s.stats.gets),
		Puts:      atomic.LoadUint64(&s.stats.puts),
		Removes:   atomic.LoadUint64(&s.stats.removes),
		Evictions: atomic.LoadUint64(&s.stats.evictions),
	}
}

// CacheKeys exposes the cache's current most-recently-used-first key
// order for internal diagnostics only. It is not exposed over HTTP.
func (s *Store) CacheKeys() []string {
	return s.cache.Keys()
}

func (s *Store) promoteToCache(key string, value []byte) {
	if _, evicted := s.cache.Put(key, value); evicted {
		atomic.AddUint64(&s.stats.evictions, 1)
	}
}

func validateKey(key []byte) error {
	if len(key) == 0 {
		return apperrors.New(apperrors.KindValidation, "key must not be empty")
	}
	if len(key) > MaxKeyLen {
		return apperrors.New(apperrors.KindValidation, fmt.Sprintf("key length %d exceeds maximum %d", len(key), MaxKeyLen))
	}
	return nil
}
