// Package admission decides whether an incoming fire event is allowed to
// produce sound. It enforces a capacity ceiling with a priority score for
// overflow, a focused-source bypass, preview-mode exclusivity, and global
// plus per-source rate limits evaluated against monotonic wall time.
package admission

import (
	"sync"
	"time"

	"github.com/synfire/synfire-go/internal/sched"
)

// Config carries the admission tunables. The priority constants are
// empirically tuned values with no deeper derivation; they are fields
// rather than constants on purpose.
type Config struct {
	Capacity int

	// Priority scoring for events arriving at capacity.
	BasePriority      float64
	PriorityThreshold float64
	PersistentBonus   float64
	IsolatedPenalty   float64
	ActivePenalty     float64

	// Rate limits.
	MinEventGap         time.Duration // global, any source
	RetriggerGap        time.Duration // same source
	PersistentRetrigger time.Duration // same source with persistent input

	// VoiceTimeout is how long a source counts against capacity after
	// being tracked.
	VoiceTimeout time.Duration

	// Now is the clock; defaults to time.Now. Injectable for tests and
	// offline rendering.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Capacity:            12,
		BasePriority:        50,
		PriorityThreshold:   50,
		PersistentBonus:     25,
		IsolatedPenalty:     15,
		ActivePenalty:       20,
		MinEventGap:         10 * time.Millisecond,
		RetriggerGap:        35 * time.Millisecond,
		PersistentRetrigger: 50 * time.Millisecond,
		VoiceTimeout:        900 * time.Millisecond,
	}
}

// Gate is the admission controller.
type Gate struct {
	mu       sync.Mutex
	cfg      Config
	timers   *sched.Timers
	active   map[int]time.Time // source -> expiry
	lastPlay map[int]time.Time
	lastAny  time.Time
	focused  int
	hasFocus bool
	preview  bool
}

func NewGate(cfg Config) *Gate {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Gate{
		cfg:      cfg,
		timers:   sched.New(),
		active:   make(map[int]time.Time),
		lastPlay: make(map[int]time.Time),
	}
}

// SetFocus marks a source as focused/selected. Pass focus=false to clear.
func (g *Gate) SetFocus(source int, focus bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.focused = source
	g.hasFocus = focus
}

// SetPreview toggles preview/solo mode: while active, only the focused
// source is admitted.
func (g *Gate) SetPreview(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.preview = on
}

// CanPlay reports whether an event from source may sound now. A true
// return records the play timestamps; a false return mutates nothing.
func (g *Gate) CanPlay(source int, persistent, isolated bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.cfg.Now()

	// Rate limits apply to every source, focused or not: they protect the
	// scheduler, not the mix.
	if !g.lastAny.IsZero() && now.Sub(g.lastAny) < g.cfg.MinEventGap {
		return false
	}
	gap := g.cfg.RetriggerGap
	if persistent {
		gap = g.cfg.PersistentRetrigger
	}
	if last, ok := g.lastPlay[source]; ok && now.Sub(last) < gap {
		return false
	}

	switch {
	case g.hasFocus && source == g.focused:
		// Focused source always plays. This is a deliberate exception to
		// the capacity ceiling, not a general rule.
	case g.preview && g.hasFocus:
		return false
	case g.activeCountLocked(now) < g.cfg.Capacity:
	default:
		_, alreadyActive := g.active[source]
		priority := g.cfg.BasePriority
		if persistent {
			priority += g.cfg.PersistentBonus
		}
		if isolated {
			priority -= g.cfg.IsolatedPenalty
		}
		if alreadyActive {
			priority -= g.cfg.ActivePenalty
		}
		if priority < 0 {
			priority = 0
		} else if priority > 100 {
			priority = 100
		}
		if priority < g.cfg.PriorityThreshold {
			return false
		}
	}

	g.lastAny = now
	g.lastPlay[source] = now
	return true
}

// TrackActive counts source against capacity until the voice timeout.
// Overflow events that won the priority contest still sound, but a source
// that would push the active set past capacity is not counted, so the
// ceiling holds as an invariant rather than a soft target.
func (g *Gate) TrackActive(source int) {
	g.mu.Lock()
	now := g.cfg.Now()
	focused := g.hasFocus && source == g.focused
	_, already := g.active[source]
	track := !focused && (already || g.activeCountLocked(now) < g.cfg.Capacity)
	if track {
		g.active[source] = now.Add(g.cfg.VoiceTimeout)
	}
	g.mu.Unlock()
	if !track {
		return
	}
	g.timers.Schedule(source, "voice-expiry", g.cfg.VoiceTimeout, func() {
		g.mu.Lock()
		delete(g.active, source)
		g.mu.Unlock()
	})
}

// Untrack removes source from the active set immediately.
func (g *Gate) Untrack(source int) {
	g.timers.Cancel(source, "voice-expiry")
	g.mu.Lock()
	delete(g.active, source)
	g.mu.Unlock()
}

// ActiveCount returns the number of sources currently counted against
// capacity.
func (g *Gate) ActiveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeCountLocked(g.cfg.Now())
}

// activeCountLocked also lazily sweeps entries whose expiry passed, which
// covers clocks injected by tests where the wall timer hasn't fired.
func (g *Gate) activeCountLocked(now time.Time) int {
	n := 0
	for source, expiry := range g.active {
		if now.After(expiry) {
			delete(g.active, source)
			continue
		}
		n++
	}
	return n
}

// IsActive reports whether source currently counts against capacity.
func (g *Gate) IsActive(source int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	expiry, ok := g.active[source]
	return ok && !g.cfg.Now().After(expiry)
}

// Reset clears all admission state and cancels pending expiries.
func (g *Gate) Reset() {
	g.timers.CancelAll()
	g.mu.Lock()
	g.active = make(map[int]time.Time)
	g.lastPlay = make(map[int]time.Time)
	g.lastAny = time.Time{}
	g.mu.Unlock()
}

// Stop tears the gate down.
func (g *Gate) Stop() {
	g.timers.Stop()
}
