package admission

import (
	"testing"
	"time"
)

// testClock returns a config with an adjustable clock and wide-open rate
// limits unless a test tightens them.
func testGate(capacity int) (*Gate, *time.Time) {
	now := time.Unix(0, 0)
	cfg := DefaultConfig()
	cfg.Capacity = capacity
	cfg.Now = func() time.Time { return now }
	return NewGate(cfg), &now
}

func TestAdmitsUpToCapacity(t *testing.T) {
	g, now := testGate(3)
	defer g.Stop()
	for i := 0; i < 3; i++ {
		*now = now.Add(100 * time.Millisecond)
		if !g.CanPlay(i, false, false) {
			t.Fatalf("source %d denied below capacity", i)
		}
		g.TrackActive(i)
	}
	if got := g.ActiveCount(); got != 3 {
		t.Fatalf("active = %d, want 3", got)
	}
}

func TestOverflowUsesPriority(t *testing.T) {
	g, now := testGate(2)
	defer g.Stop()
	for i := 0; i < 2; i++ {
		*now = now.Add(100 * time.Millisecond)
		g.CanPlay(i, false, false)
		g.TrackActive(i)
	}

	// Base priority 50 meets the threshold, so a plain event still plays.
	*now = now.Add(100 * time.Millisecond)
	if !g.CanPlay(10, false, false) {
		t.Error("plain event at capacity should meet the threshold")
	}

	// An isolated event drops to 35 and is denied.
	*now = now.Add(100 * time.Millisecond)
	if g.CanPlay(11, false, true) {
		t.Error("isolated event at capacity should be denied")
	}

	// Persistent input outweighs the isolation penalty.
	*now = now.Add(100 * time.Millisecond)
	if !g.CanPlay(12, true, true) {
		t.Error("persistent isolated event should be admitted")
	}
}

func TestActiveNeverExceedsCapacity(t *testing.T) {
	g, now := testGate(2)
	defer g.Stop()
	for i := 0; i < 20; i++ {
		*now = now.Add(100 * time.Millisecond)
		if g.CanPlay(i, i%3 == 0, false) {
			g.TrackActive(i)
		}
		if got := g.ActiveCount(); got > 2 {
			t.Fatalf("active = %d after source %d, want <= 2", got, i)
		}
	}
}

func TestAlreadyActivePenalty(t *testing.T) {
	g, now := testGate(1)
	defer g.Stop()
	*now = now.Add(100 * time.Millisecond)
	g.CanPlay(5, false, false)
	g.TrackActive(5)

	// Source 5 is active: 50 - 20 = 30, denied at capacity.
	*now = now.Add(100 * time.Millisecond)
	if g.CanPlay(5, false, false) {
		t.Error("already-active source should lose the overflow contest")
	}
}

func TestFocusedBypassesCapacity(t *testing.T) {
	g, now := testGate(1)
	defer g.Stop()
	*now = now.Add(100 * time.Millisecond)
	g.CanPlay(1, false, false)
	g.TrackActive(1)
	g.SetFocus(9, true)

	*now = now.Add(100 * time.Millisecond)
	if !g.CanPlay(9, false, true) {
		t.Error("focused source must bypass the capacity ceiling")
	}
}

func TestFocusedStillRateLimited(t *testing.T) {
	g, now := testGate(8)
	defer g.Stop()
	g.SetFocus(9, true)
	*now = now.Add(100 * time.Millisecond)
	if !g.CanPlay(9, false, false) {
		t.Fatal("first focused event denied")
	}
	*now = now.Add(5 * time.Millisecond)
	if g.CanPlay(9, false, false) {
		t.Error("rate limits must apply to the focused source too")
	}
}

func TestPreviewModeAdmitsOnlyFocused(t *testing.T) {
	g, now := testGate(8)
	defer g.Stop()
	g.SetFocus(3, true)
	g.SetPreview(true)

	*now = now.Add(100 * time.Millisecond)
	if g.CanPlay(4, false, false) {
		t.Error("non-focused source admitted in preview mode")
	}
	*now = now.Add(100 * time.Millisecond)
	if !g.CanPlay(3, false, false) {
		t.Error("focused source denied in preview mode")
	}
}

func TestGlobalMinEventGap(t *testing.T) {
	g, now := testGate(8)
	defer g.Stop()
	*now = now.Add(time.Second)
	if !g.CanPlay(1, false, false) {
		t.Fatal("first event denied")
	}
	// A different source inside the global gap is still denied.
	*now = now.Add(5 * time.Millisecond)
	if g.CanPlay(2, false, false) {
		t.Error("global minimum gap not enforced across sources")
	}
	*now = now.Add(10 * time.Millisecond)
	if !g.CanPlay(2, false, false) {
		t.Error("event denied after the global gap elapsed")
	}
}

func TestPerSourceRetriggerGap(t *testing.T) {
	g, now := testGate(8)
	defer g.Stop()
	*now = now.Add(time.Second)
	g.CanPlay(1, false, false)

	*now = now.Add(20 * time.Millisecond)
	if g.CanPlay(1, false, false) {
		t.Error("retrigger inside 35ms should be denied")
	}
	*now = now.Add(20 * time.Millisecond)
	if !g.CanPlay(1, false, false) {
		t.Error("retrigger after 35ms should play")
	}
}

func TestPersistentRetriggerGapIsLonger(t *testing.T) {
	g, now := testGate(8)
	defer g.Stop()
	*now = now.Add(time.Second)
	g.CanPlay(1, true, false)

	*now = now.Add(40 * time.Millisecond)
	if g.CanPlay(1, true, false) {
		t.Error("persistent retrigger inside 50ms should be denied")
	}
	*now = now.Add(15 * time.Millisecond)
	if !g.CanPlay(1, true, false) {
		t.Error("persistent retrigger after 50ms should play")
	}
}

func TestDeniedEventMutatesNothing(t *testing.T) {
	g, now := testGate(8)
	defer g.Stop()
	*now = now.Add(time.Second)
	g.CanPlay(1, false, false)

	// Denied by the global gap; must not refresh source 2's timestamp.
	*now = now.Add(5 * time.Millisecond)
	g.CanPlay(2, false, false)
	*now = now.Add(10 * time.Millisecond)
	if !g.CanPlay(2, false, false) {
		t.Error("denied attempt consumed a rate-limit slot")
	}
}

func TestActiveExpiresAfterTimeout(t *testing.T) {
	g, now := testGate(8)
	defer g.Stop()
	*now = now.Add(time.Second)
	g.CanPlay(1, false, false)
	g.TrackActive(1)
	if g.ActiveCount() != 1 {
		t.Fatal("expected one active source")
	}
	*now = now.Add(time.Second)
	if g.ActiveCount() != 0 {
		t.Error("active entry should expire after the voice timeout")
	}
}

func TestUntrackAndReset(t *testing.T) {
	g, now := testGate(8)
	defer g.Stop()
	*now = now.Add(time.Second)
	g.CanPlay(1, false, false)
	g.TrackActive(1)
	g.Untrack(1)
	if g.IsActive(1) {
		t.Error("source still active after Untrack")
	}

	g.CanPlay(2, false, false)
	g.TrackActive(2)
	g.Reset()
	if g.ActiveCount() != 0 {
		t.Error("Reset should clear the active set")
	}
	// Rate-limit history is gone too: an immediate event plays.
	if !g.CanPlay(2, false, false) {
		t.Error("Reset should clear rate-limit history")
	}
}
