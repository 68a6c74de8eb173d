package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("working")
	s.Start()

	// Stop multiple times should not panic
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerCancelledByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "working")
	s.Start()
	cancel()

	// Give the goroutine time to notice cancellation
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation after its context is cancelled")
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	s := newSpinner("short")
	s.Start()
	s.SetMessage("a much longer live status line with a score")
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if s.width < len("a much longer live status line with a score") {
		t.Errorf("width = %d, want at least the longest message", s.width)
	}
}
