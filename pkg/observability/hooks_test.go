package observability

import (
	"context"
	"testing"
	"time"
)

type recordingSearchHooks struct {
	NoopSearchHooks
	starts    int
	completes int
}

func (h *recordingSearchHooks) OnSearchStart(context.Context, string, int) { h.starts++ }
func (h *recordingSearchHooks) OnSearchComplete(context.Context, string, float64, time.Duration, error) {
	h.completes++
}

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()

	// Must not panic.
	ctx := context.Background()
	Search().OnSearchStart(ctx, "boss", 10)
	Search().OnSearchComplete(ctx, "boss", -123.4, time.Second, nil)
	Cache().OnCacheHit(ctx, "search-result")
	Store().OnSave(ctx, "memory", "id")
}

func TestSetSearchHooks(t *testing.T) {
	t.Cleanup(Reset)

	rec := &recordingSearchHooks{}
	SetSearchHooks(rec)

	Search().OnSearchStart(context.Background(), "boss", 3)
	Search().OnSearchComplete(context.Background(), "boss", -1, time.Second, nil)

	if rec.starts != 1 || rec.completes != 1 {
		t.Errorf("starts = %d, completes = %d, want 1 and 1", rec.starts, rec.completes)
	}
}

func TestSetNilHooksKeepsCurrent(t *testing.T) {
	t.Cleanup(Reset)

	rec := &recordingSearchHooks{}
	SetSearchHooks(rec)
	SetSearchHooks(nil)

	Search().OnSearchStart(context.Background(), "boss", 3)
	if rec.starts != 1 {
		t.Error("nil registration replaced the active hooks")
	}
}

func TestReset(t *testing.T) {
	rec := &recordingSearchHooks{}
	SetSearchHooks(rec)
	Reset()

	Search().OnSearchStart(context.Background(), "boss", 3)
	if rec.starts != 0 {
		t.Error("Reset did not restore no-op hooks")
	}
}
