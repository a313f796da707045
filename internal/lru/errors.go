package lru

import "errors"

// ErrInvalidCapacity is returned by New when asked to build a cache that
// can never hold an entry.
var ErrInvalidCapacity = errors.New("lru: capacity must be at least 1")
