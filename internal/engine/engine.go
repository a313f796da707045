// Package engine owns the lifecycle of the partition set: construction,
// parallel startup, fanned-out list_keys, and orderly shutdown.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dreamware/kvstore/internal/apperrors"
	"github.com/dreamware/kvstore/internal/partition"
	"github.com/dreamware/kvstore/internal/router"
)

// Config configures the engine's partition set.
type Config struct {
	DataDir    string
	CacheSize  int
	Partitions int
	// QueueDepth bounds each partition's dispatch inbox so a slow
	// partition applies backpressure instead of growing without limit.
	QueueDepth int
}

// Engine is the lifecycle owner of all partitions and the entry point
// the HTTP adapter dispatches through.
type Engine struct {
	cfg      Config
	contexts []*router.Context
	stores   []*partition.Store
}

// New constructs an Engine with cfg.Partitions partition stores. It does
// not start them; call Start for that.
func New(cfg Config) (*Engine, error) {
	if cfg.Partitions <= 0 {
		return nil, fmt.Errorf("engine: partitions must be positive, got %d", cfg.Partitions)
	}
	e := &Engine{cfg: cfg}
	for i := 0; i < cfg.Partitions; i++ {
		store, err := partition.New(i, cfg.DataDir, cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("engine: partition %d: %w", i, err)
		}
		e.stores = append(e.stores, store)
	}
	return e, nil
}

// Start replays and opens every partition's log in parallel, then wires
// up each partition's execution context. If any partition fails to
// start, Start returns the first error and leaves no execution contexts
// running.
func (e *Engine) Start(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, store := range e.stores {
		store := store
		g.Go(func() error {
			return store.Start()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, store := range e.stores {
		e.contexts = append(e.contexts, router.NewContext(store, e.cfg.QueueDepth))
	}
	return nil
}

// Stop stops accepting new requests' worth of work by closing every
// partition's execution context, then stops every partition store.
// Stop runs to completion even if one partition's stop fails; errors are
// logged and discarded.
func (e *Engine) Stop(ctx context.Context) {
	for _, c := range e.contexts {
		c.Close()
	}
	for _, store := range e.stores {
		if err := store.Stop(); err != nil {
			slog.Warn("partition stop failed", "partition", store.ID(), "error", err)
		}
	}
}

// Get dispatches a get to the partition owning key.
func (e *Engine) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	var ok bool
	var opErr error
	c := e.contextFor(key)
	if err := c.Dispatch(ctx, func(s *partition.Store) {
		value, ok, opErr = s.Get(key)
	}); err != nil {
		return nil, false, err
	}
	return value, ok, opErr
}

// Put dispatches a put to the partition owning key.
func (e *Engine) Put(ctx context.Context, key, value []byte) error {
	var opErr error
	c := e.contextFor(key)
	if err := c.Dispatch(ctx, func(s *partition.Store) {
		opErr = s.Put(key, value)
	}); err != nil {
		return err
	}
	return opErr
}

// Remove dispatches a remove to the partition owning key.
func (e *Engine) Remove(ctx context.Context, key []byte) error {
	var opErr error
	c := e.contextFor(key)
	if err := c.Dispatch(ctx, func(s *partition.Store) {
		opErr = s.Remove(key)
	}); err != nil {
		return err
	}
	return opErr
}

// ListKeysAll fans list_keys out to every partition concurrently,
// concatenates the results, and returns them sorted ascending. It is a
// set union of per-partition snapshots, not a global point-in-time
// snapshot: a key mutated concurrently with the call may or may not
// appear. No key can ever appear under two partitions, so no duplicate
// appears in the result.
func (e *Engine) ListKeysAll(ctx context.Context) ([]string, error) {
	results := make([][]string, len(e.contexts))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range e.contexts {
		i, c := i, c
		g.Go(func() error {
			return c.Dispatch(gctx, func(s *partition.Store) {
				results[i] = s.ListKeys()
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []string
	for _, keys := range results {
		all = append(all, keys...)
	}
	sort.Strings(all)
	return all, nil
}

// PartitionCount returns the number of partitions the engine manages,
// serving the /stats endpoint's shard_count field.
func (e *Engine) PartitionCount() int {
	return len(e.stores)
}

// PartitionStats returns a snapshot of each partition's operation
// counters, indexed by partition ID, for the Prometheus metrics
// collector.
func (e *Engine) PartitionStats() []partition.Stats {
	stats := make([]partition.Stats, len(e.stores))
	for i, s := range e.stores {
		stats[i] = s.Stats()
	}
	return stats
}

func (e *Engine) contextFor(key []byte) *router.Context {
	return e.contexts[router.ShardOf(key, len(e.contexts))]
}

// ValidationError reports whether err is a validation failure, letting
// the HTTP adapter distinguish a 400 from other failure kinds without
// importing partition or apperrors types directly into its handlers.
func ValidationError(err error) bool {
	return apperrors.KindOf(err) == apperrors.KindValidation
}

// IOError reports whether err is an IO failure (maps to HTTP 500).
func IOError(err error) bool {
	return apperrors.KindOf(err) == apperrors.KindIO
}
