package sched

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	tm := New()
	defer tm.Stop()
	var fired atomic.Bool
	tm.Schedule(1, "test", 10*time.Millisecond, func() { fired.Store(true) })
	time.Sleep(50 * time.Millisecond)
	if !fired.Load() {
		t.Error("timer did not fire")
	}
	if tm.Pending() != 0 {
		t.Errorf("pending = %d after firing", tm.Pending())
	}
}

func TestScheduleReplacesSameKey(t *testing.T) {
	tm := New()
	defer tm.Stop()
	var first, second atomic.Bool
	tm.Schedule(1, "release", 20*time.Millisecond, func() { first.Store(true) })
	tm.Schedule(1, "release", 20*time.Millisecond, func() { second.Store(true) })
	if tm.Pending() != 1 {
		t.Fatalf("pending = %d, want 1 after replacement", tm.Pending())
	}
	time.Sleep(60 * time.Millisecond)
	if first.Load() {
		t.Error("replaced timer still fired")
	}
	if !second.Load() {
		t.Error("replacement timer did not fire")
	}
}

func TestDistinctPurposesCoexist(t *testing.T) {
	tm := New()
	defer tm.Stop()
	tm.Schedule(1, "release", time.Hour, func() {})
	tm.Schedule(1, "expiry", time.Hour, func() {})
	if tm.Pending() != 2 {
		t.Errorf("pending = %d, want 2", tm.Pending())
	}
}

func TestCancel(t *testing.T) {
	tm := New()
	defer tm.Stop()
	var fired atomic.Bool
	tm.Schedule(1, "test", 20*time.Millisecond, func() { fired.Store(true) })
	if !tm.Cancel(1, "test") {
		t.Error("Cancel should report a pending timer")
	}
	if tm.Cancel(1, "test") {
		t.Error("second Cancel should find nothing")
	}
	time.Sleep(50 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled timer fired")
	}
}

func TestCancelSource(t *testing.T) {
	tm := New()
	defer tm.Stop()
	tm.Schedule(1, "a", time.Hour, func() {})
	tm.Schedule(1, "b", time.Hour, func() {})
	tm.Schedule(2, "a", time.Hour, func() {})
	if n := tm.CancelSource(1); n != 2 {
		t.Errorf("CancelSource(1) = %d, want 2", n)
	}
	if tm.Pending() != 1 {
		t.Errorf("pending = %d, want 1", tm.Pending())
	}
}

func TestStopRefusesNewWork(t *testing.T) {
	tm := New()
	var fired atomic.Bool
	tm.Schedule(1, "a", 10*time.Millisecond, func() { fired.Store(true) })
	tm.Stop()
	tm.Schedule(2, "b", time.Millisecond, func() { fired.Store(true) })
	time.Sleep(40 * time.Millisecond)
	if fired.Load() {
		t.Error("work ran after Stop")
	}
	if tm.Pending() != 0 {
		t.Errorf("pending = %d after Stop", tm.Pending())
	}
}
