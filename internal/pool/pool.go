// Package pool manages the bank of shared oscillator+gain pairs keyed by
// (timbre, quantized frequency). Pairs are created lazily on first demand
// and evicted by a low-frequency maintenance pass once idle; a pair with a
// non-empty active-source set is never evicted, whatever its age. Pool
// size is therefore bounded by the distinct timbres and semitones in use
// over the idle window, not by the number of notes played.
package pool

import (
	"sync"
	"time"

	"github.com/synfire/synfire-go/internal/voice"
)

// Key identifies one pooled pair.
type Key struct {
	Timbre   voice.OscFamily
	Semitone int
}

// Resource is a pooled pair plus its bookkeeping. All fields are guarded
// by the owning Pool's mutex.
type Resource struct {
	Key      Key
	pair     *Pair
	active   map[int]struct{}
	lastUsed time.Time
}

// Stats is a point-in-time view of pool accounting.
type Stats struct {
	Current  int
	Created  int
	Disposed int
	Peak     int
}

// Pool owns every pooled resource.
type Pool struct {
	mu         sync.Mutex
	sampleRate float64
	resources  map[Key]*Resource
	stats      Stats
	now        func() time.Time
	warn       func(string)

	// newPair is swappable so tests can exercise the degrade-to-silence
	// path for failed primitive creation.
	newPair func(voice.OscFamily, float64) (*Pair, error)
}

// New creates a pool. warn may be nil.
func New(sampleRate int, now func() time.Time, warn func(string)) *Pool {
	if now == nil {
		now = time.Now
	}
	if warn == nil {
		warn = func(string) {}
	}
	return &Pool{
		sampleRate: float64(sampleRate),
		resources:  make(map[Key]*Resource),
		now:        now,
		warn:       warn,
		newPair:    newPair,
	}
}

// Acquire returns the resource for (timbre, Quantize(freq)), creating it
// if needed, and retains it for source. Creation failure degrades to a
// silent resource with a single warning; Acquire never fails.
func (p *Pool) Acquire(timbre voice.OscFamily, freq float64, source int) *Resource {
	key := Key{Timbre: timbre, Semitone: Quantize(freq)}

	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.resources[key]
	if !ok {
		pair, err := p.newPair(timbre, FreqForSemitone(key.Semitone))
		if err != nil {
			p.warn("pool: oscillator creation failed, resource will be silent: " + err.Error())
			pair = nil
		}
		r = &Resource{
			Key:    key,
			pair:   pair,
			active: make(map[int]struct{}),
		}
		p.resources[key] = r
		p.stats.Created++
		if len(p.resources) > p.stats.Peak {
			p.stats.Peak = len(p.resources)
		}
	}
	r.active[source] = struct{}{}
	r.lastUsed = p.now()
	return r
}

// Trigger starts a gain envelope on the resource's pair. Frame counts are
// in samples at the pool's rate.
func (p *Pool) Trigger(r *Resource, level float32, attack, hold, release int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.pair != nil {
		r.pair.Trigger(level, attack, hold, release)
	}
}

// Release drops source from the resource's active set. Callers schedule
// this after a fixed post-sound window rather than at envelope end, so a
// re-trigger racing the release cannot see its resource evicted.
func (p *Pool) Release(key Key, source int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.resources[key]; ok {
		delete(r.active, source)
		r.lastUsed = p.now()
	}
}

// SilenceSource force-silences every resource source holds and drops the
// holds.
func (p *Pool) SilenceSource(source int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.resources {
		if _, ok := r.active[source]; ok {
			delete(r.active, source)
			if r.pair != nil && len(r.active) == 0 {
				r.pair.Silence()
			}
		}
	}
}

// SilenceAll force-silences every resource and clears all holds.
func (p *Pool) SilenceAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.resources {
		r.active = make(map[int]struct{})
		if r.pair != nil {
			r.pair.Silence()
		}
	}
}

// EvictIdle disposes every resource whose active set is empty and whose
// last use is older than threshold. Runs under the pool mutex, so a
// concurrent Acquire either sees the resource before disposal or creates
// a fresh one after. Returns the number evicted.
func (p *Pool) EvictIdle(threshold time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	n := 0
	for key, r := range p.resources {
		if len(r.active) > 0 {
			continue
		}
		if now.Sub(r.lastUsed) <= threshold {
			continue
		}
		if r.pair != nil {
			r.pair.Silence()
		}
		delete(p.resources, key)
		p.stats.Disposed++
		n++
	}
	return n
}

// DisposeAll releases everything. Part of engine teardown.
func (p *Pool) DisposeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, r := range p.resources {
		if r.pair != nil {
			r.pair.Silence()
		}
		delete(p.resources, key)
		p.stats.Disposed++
	}
}

// Render sums every sounding pair into dst (mono), locking once per block.
func (p *Pool) Render(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.resources {
		if r.pair == nil || !r.pair.Sounding() {
			continue
		}
		for i := range dst {
			dst[i] += r.pair.renderFrame(p.sampleRate)
		}
	}
}

// Size returns the number of pooled resources.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.resources)
}

// ActiveHolds returns the active-set size for the resource under key.
func (p *Pool) ActiveHolds(key Key) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.resources[key]; ok {
		return len(r.active)
	}
	return 0
}

// Stats returns a copy of the pool accounting.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Current = len(p.resources)
	return s
}
