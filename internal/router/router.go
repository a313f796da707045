// Package router implements the shard router: a pure hash-based mapping
// from key to owning partition, plus a dispatch capability that submits
// an operation to that partition's execution context and blocks until it
// has run. Dispatch returns no handle; results reach the caller through
// variables the submitted function captures.
//
// Each partition is pinned to one goroutine that owns its Store
// exclusively: the goroutine reads a private inbox channel and runs each
// job to completion, including the log flush, before taking the next
// one. This is what lets partition.Store avoid internal locking: only
// its owning goroutine ever touches it.
package router

import (
	"context"
	"hash/fnv"

	"github.com/dreamware/kvstore/internal/partition"
)

// ShardOf returns the index of the partition that owns key, using an
// explicit FNV-1a hash so the mapping is stable across process restarts
// sharing the same data directory. Changing numPartitions between
// restarts is a deployment error, not something this function can
// detect: a key's history stays in its old partition's log file
// regardless of how it now hashes.
func ShardOf(key []byte, numPartitions int) int {
	h := fnv.New64a()
	h.Write(key)
	return int(h.Sum64() % uint64(numPartitions))
}

// job is one unit of work submitted to a partition's execution context.
type job struct {
	fn   func(*partition.Store)
	done chan struct{}
}

// Context is the execution context for a single partition: an owning
// goroutine plus its inbox. Operations on different partitions are
// unordered with respect to each other; operations on the same partition
// are served strictly in arrival order.
type Context struct {
	store *partition.Store
	inbox chan job
	done  chan struct{}
}

// NewContext creates and starts the execution context for store. The
// caller must eventually call Close to stop the underlying goroutine.
func NewContext(store *partition.Store, queueDepth int) *Context {
	c := &Context{
		store: store,
		inbox: make(chan job, queueDepth),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Context) run() {
	defer close(c.done)
	for j := range c.inbox {
		j.fn(c.store)
		close(j.done)
	}
}

// Close stops accepting new work and waits for the goroutine to drain
// jobs already in the inbox and exit.
func (c *Context) Close() {
	close(c.inbox)
	<-c.done
}

// Dispatch submits fn to run against this partition's Store on its
// owning goroutine, blocking until fn has run or ctx is canceled first.
// If ctx is canceled before fn starts running, the job may still run
// later since it is already enqueued: cancellation is only guaranteed
// at the dispatch boundary before a job reaches the partition; once
// execution starts it always runs to completion.
func (c *Context) Dispatch(ctx context.Context, fn func(*partition.Store)) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case c.inbox <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
