package cache

import (
	"context"
	"testing"
	"time"

	"github.com/causalite/causalite/pkg/observability"
	"github.com/causalite/causalite/pkg/store"
)

func sampleRun(id string) *store.Record {
	return &store.Record{
		ID:        id,
		Algorithm: "boss",
		Status:    "completed",
		Score:     -123.45,
		Order:     []string{"a", "b", "c"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Errorf("Get(missing) = %v, %v, want miss", ok, err)
	}

	if err := c.Set(ctx, "k", sampleRun("r1"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	rec, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get(k) = %v, %v, want hit", ok, err)
	}
	if rec.ID != "r1" || rec.Score != -123.45 || len(rec.Order) != 3 {
		t.Errorf("cached run = %+v, lost fields in the round trip", rec)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get after Delete reported a hit")
	}
}

func TestFileCacheExpiration(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", sampleRun("r1"), -time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Non-positive TTL means no expiration.
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("entry without TTL expired")
	}

	if err := c.Set(ctx, "short", sampleRun("r2"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Error("expired entry still returned")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", sampleRun("r1"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	rec, ok, _ := c.Get(ctx, "k")
	if !ok || rec.ID != "r1" {
		t.Errorf("Get(k) = %+v, %v, want hit for r1", rec, ok)
	}

	if err := c.Set(ctx, "short", sampleRun("r2"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Error("expired entry still returned")
	}
}

func TestNullCacheNeverStores(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", sampleRun("r1"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("NullCache returned a hit")
	}
}

func TestResultKeyIsStable(t *testing.T) {
	type config struct {
		Algorithm string
		Penalty   float64
	}
	k1 := ResultKey("abc", config{"boss", 2})
	k2 := ResultKey("abc", config{"boss", 2})
	k3 := ResultKey("abc", config{"boss", 4})
	k4 := ResultKey("def", config{"boss", 2})

	if k1 != k2 {
		t.Error("identical inputs produced different keys")
	}
	if k1 == k3 || k1 == k4 {
		t.Error("different inputs produced the same key")
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (h *countingHooks) OnCacheHit(context.Context, string)  { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string) { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string)  { h.sets++ }

func TestInstrumentedEmitsHooks(t *testing.T) {
	t.Cleanup(observability.Reset)
	rec := &countingHooks{}
	observability.SetCacheHooks(rec)

	c := Instrumented(NewMemoryCache(), "search-result")
	ctx := context.Background()

	c.Get(ctx, "k")
	c.Set(ctx, "k", sampleRun("r1"), 0)
	c.Get(ctx, "k")

	if rec.misses != 1 || rec.sets != 1 || rec.hits != 1 {
		t.Errorf("hooks = %d hits, %d misses, %d sets, want 1 each", rec.hits, rec.misses, rec.sets)
	}
}
