// Package sched provides cancellable timers keyed by (source, purpose).
// Every piece of deferred work in the engine — pooled-resource release,
// voice expiry, duck restore — is scheduled through one Timers instance so
// silence and restore operations can cancel exactly the pending work they
// mean to, instead of best-effort bookkeeping spread across maps.
package sched

import (
	"sync"
	"time"
)

// Key identifies one pending piece of work. Scheduling under an existing
// key replaces the earlier timer.
type Key struct {
	Source  int
	Purpose string
}

// Timers owns a set of keyed time.AfterFunc timers.
type Timers struct {
	mu      sync.Mutex
	pending map[Key]*time.Timer
	stopped bool
}

func New() *Timers {
	return &Timers{pending: make(map[Key]*time.Timer)}
}

// Schedule runs fn after d, replacing any timer already pending under the
// same (source, purpose). fn runs on a timer goroutine; it must not call
// back into Timers while holding locks fn shares with Cancel callers.
func (t *Timers) Schedule(source int, purpose string, d time.Duration, fn func()) {
	key := Key{Source: source, Purpose: purpose}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if old, ok := t.pending[key]; ok {
		old.Stop()
	}
	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		t.mu.Lock()
		// A replacement may have been scheduled between this timer firing
		// and acquiring the lock; only the current holder clears the key
		// and runs.
		current := t.pending[key] == tm
		if current {
			delete(t.pending, key)
		}
		stopped := t.stopped
		t.mu.Unlock()
		if current && !stopped {
			fn()
		}
	})
	t.pending[key] = tm
}

// Cancel stops the timer under (source, purpose). Returns whether one was
// pending.
func (t *Timers) Cancel(source int, purpose string) bool {
	key := Key{Source: source, Purpose: purpose}
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.pending[key]; ok {
		timer.Stop()
		delete(t.pending, key)
		return true
	}
	return false
}

// CancelSource stops every pending timer for source, whatever the purpose.
func (t *Timers) CancelSource(source int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for key, timer := range t.pending {
		if key.Source == source {
			timer.Stop()
			delete(t.pending, key)
			n++
		}
	}
	return n
}

// CancelAll stops every pending timer.
func (t *Timers) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.pending {
		timer.Stop()
		delete(t.pending, key)
	}
}

// Pending returns the number of timers currently scheduled.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop cancels everything and refuses further scheduling. Used by engine
// teardown so stale timers cannot resurrect cleared state.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for key, timer := range t.pending {
		timer.Stop()
		delete(t.pending, key)
	}
}
