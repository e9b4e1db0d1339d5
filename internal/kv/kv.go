// Package kv provides a byte-oriented key-value cache with per-key expiry.
//
// Two variants implement Store: an in-process map (MemoryStore) and a
// networked Redis store (RedisStore). Callers pick one at construction time.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotInitialized is returned when a store is used before it was opened or after Close.
var ErrNotInitialized = errors.New("kv: store not initialized")

// Store is a key-value cache. Absence is never an error: Get reports found=false,
// Delete reports 0 and Exists reports false.
type Store interface {
	// Get returns the value stored at key. An entry past its expiry is absent
	// and reading it removes it.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value at key, replacing any previous value and expiry.
	// ttl <= 0 stores the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key and returns the number of entries removed (0 or 1).
	Delete(ctx context.Context, key string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
