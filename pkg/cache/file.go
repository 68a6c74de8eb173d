package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/causalite/causalite/pkg/store"
)

// EntryExt is the file extension of cached run entries.
const EntryExt = ".json"

// FileCache persists runs on disk, one JSON file per entry, sharded into
// subdirectories by key hash. This is the CLI backend: the cache survives
// across invocations so a re-run of the same search is a file read.
type FileCache struct {
	dir string
}

// NewFileCache opens a file-backed cache rooted at dir, creating the
// directory if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// runEntry is the on-disk form: the run record plus its expiration.
type runEntry struct {
	ExpiresAt time.Time     `json:"expires_at,omitempty"`
	Run       *store.Record `json:"run"`
}

// Get retrieves a cached run, removing entries that are expired or no
// longer decodable.
func (c *FileCache) Get(ctx context.Context, key string) (*store.Record, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry runEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Run == nil {
		// Written by an incompatible version; recompute.
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Run, true, nil
}

// Set stores a run, creating the shard directory on first use.
func (c *FileCache) Set(ctx context.Context, key string, rec *store.Record, ttl time.Duration) error {
	entry := runEntry{Run: rec}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

// Delete removes a cached run.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file cache.
func (c *FileCache) Close() error { return nil }

// path maps a key to its entry file. The first two hash characters form a
// shard directory so no single directory collects every entry.
func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+EntryExt)
}

var _ Cache = (*FileCache)(nil)
