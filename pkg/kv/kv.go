// Package kv provides a key-value store abstraction for shared configuration
// documents. A training config referenced as kv://<key> is fetched through
// this interface, so the backend (Valkey/Redis, in-memory) can be swapped
// without touching the loader.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: key not found")

// KeyPrefix namespaces config documents inside a shared keyspace.
const KeyPrefix = "trainer:config:"

// Store defines a minimal key-value interface for config documents.
type Store interface {
	// Set stores a value with the given key and TTL.
	// If TTL is 0, the key does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns ErrNotFound if key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Close closes the connection to the store.
	Close() error
}

// ConfigKey returns the namespaced key for a config document name.
func ConfigKey(name string) string {
	return KeyPrefix + name
}
