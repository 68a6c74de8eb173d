package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/causalite/causalite/pkg/cache"
	"github.com/causalite/causalite/pkg/store"
)

func TestCacheClearRemovesShardedEntries(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error = %v", err)
	}

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"result:one", "result:two"} {
		if err := fc.Set(ctx, key, &store.Record{ID: key, Algorithm: "boss"}, 0); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	c := New(io.Discard, LogInfo)
	cmd := c.cacheClearCommand()
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}

	shards, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, shard := range shards {
		if shard.IsDir() {
			t.Errorf("shard directory %s survived clearing", filepath.Join(dir, shard.Name()))
		}
	}
	if _, ok, _ := fc.Get(ctx, "result:one"); ok {
		t.Error("cleared entry still retrievable")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
