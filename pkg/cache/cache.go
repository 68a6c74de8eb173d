// Package cache memoizes finished search runs so repeating a search over
// the same dataset and configuration returns the stored run instead of
// searching again.
//
// Entries are full run records keyed by a content hash of the dataset plus
// the search configuration; any change to either produces a different key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/causalite/causalite/pkg/observability"
	"github.com/causalite/causalite/pkg/store"
)

// Cache stores run records under derived keys with optional TTL.
type Cache interface {
	// Get retrieves a run. The bool reports whether the key was found.
	Get(ctx context.Context, key string) (*store.Record, bool, error)

	// Set stores a run. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, rec *store.Record, ttl time.Duration) error

	// Delete removes a run. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Hash computes the SHA-256 content hash of data as a 64-character hex
// string. Used to fingerprint dataset and knowledge files.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ResultKey derives the cache key for a run from the dataset content hash
// and the search configuration.
func ResultKey(dataHash string, config any) string {
	cfg, _ := json.Marshal(config)
	sum := sha256.Sum256(append([]byte(dataHash+"\n"), cfg...))
	return "result:" + hex.EncodeToString(sum[:])
}

// Instrumented wraps a cache with observability hooks. The keyType tags
// every emitted event.
func Instrumented(inner Cache, keyType string) Cache {
	return &instrumented{inner: inner, keyType: keyType}
}

type instrumented struct {
	inner   Cache
	keyType string
}

func (c *instrumented) Get(ctx context.Context, key string) (*store.Record, bool, error) {
	rec, ok, err := c.inner.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, c.keyType)
		} else {
			observability.Cache().OnCacheMiss(ctx, c.keyType)
		}
	}
	return rec, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, rec *store.Record, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, rec, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, c.keyType)
	}
	return err
}

func (c *instrumented) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

func (c *instrumented) Close() error { return c.inner.Close() }
