package bus

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/synfire/synfire-go/internal/dsp"
	"github.com/synfire/synfire-go/internal/instrument"
	"github.com/synfire/synfire-go/internal/spatial"
	"github.com/synfire/synfire-go/internal/voice"
)

// Config tunes the graph-wide behavior.
type Config struct {
	// DuckAmount is the gain applied to the summed mix while bass and
	// transient activity overlap.
	DuckAmount float32
	// DuckWindow is how close together a bass note and a transient hit
	// must land to count as overlapping.
	DuckWindow time.Duration
	// DuckHold is how long the duck stays engaged after the overlap.
	DuckHold time.Duration
}

// DefaultConfig returns the stock graph tuning.
func DefaultConfig() Config {
	return Config{
		DuckAmount: 0.65,
		DuckWindow: 250 * time.Millisecond,
		DuckHold:   300 * time.Millisecond,
	}
}

// Graph owns the fixed set of buses and the shared final mix. Buses are
// built once in NewGraph; routing decisions afterwards only pick among
// them.
type Graph struct {
	sampleRate int
	cfg        Config
	buses      [Count]*Bus

	duck   *dsp.Gain
	comp   *dsp.Compressor
	lim    *dsp.Limiter
	master *dsp.Gain

	mu            sync.Mutex
	lastBass      time.Time
	lastTransient time.Time
	now           func() time.Time
}

// NewGraph builds every bus and the final mix chain. now may be nil.
func NewGraph(sampleRate int, cfg Config, now func() time.Time) *Graph {
	if now == nil {
		now = time.Now
	}
	if cfg.DuckAmount <= 0 || cfg.DuckAmount > 1 {
		cfg.DuckAmount = 0.65
	}
	if cfg.DuckWindow <= 0 {
		cfg.DuckWindow = 250 * time.Millisecond
	}
	if cfg.DuckHold <= 0 {
		cfg.DuckHold = 300 * time.Millisecond
	}

	g := &Graph{
		sampleRate: sampleRate,
		cfg:        cfg,
		duck:       dsp.NewGain(1),
		comp:       dsp.NewCompressor(sampleRate, -12, 4, 5, 120, 2),
		lim:        dsp.NewLimiter(sampleRate, 0.95, 80),
		master:     dsp.NewGain(0.8),
		now:        now,
	}
	for id := ID(0); id < Count; id++ {
		g.buses[id] = buildBus(sampleRate, id)
	}
	return g
}

// buildBus assembles one bus. Chain.Add skips nil stages, so a stage that
// cannot be built degrades the bus to plainer sound instead of silencing
// it.
func buildBus(sampleRate int, id ID) *Bus {
	b := &Bus{
		id:     id,
		pre:    dsp.NewChain(),
		tail:   dsp.NewChain(),
		out:    dsp.NewGain(1),
		panner: spatial.NewPanner(sampleRate),
	}
	switch id {
	case Low:
		b.inst = instrument.New(sampleRate, instrument.Tonal())
		b.pre.Add(dsp.NewBandFilter(sampleRate, dsp.ShapeLowpass, 320, 0.8, 0))
		b.pre.Add(dsp.NewEQ3Band(sampleRate, 1.1, 1.0, 0.9, 200, 2000))
		b.pre.Add(dsp.NewCompressor(sampleRate, -20, 3, 10, 150, 1))
		b.tail.Add(dsp.NewDelay(sampleRate, 220, 0.2, 0.1))
		b.tail.Add(dsp.NewReverb(sampleRate, 0.4, 0.12))
		b.out.Set(0.9)
	case Mid:
		b.inst = instrument.New(sampleRate, instrument.Tonal())
		b.pre.Add(dsp.NewBandFilter(sampleRate, dsp.ShapeBandpass, 1000, 0.7, 0))
		b.pre.Add(dsp.NewEQ3Band(sampleRate, 0.9, 1.1, 1.0, 250, 2500))
		b.tail.Add(dsp.NewDelay(sampleRate, 280, 0.25, 0.14))
		b.tail.Add(dsp.NewReverb(sampleRate, 0.5, 0.16))
		b.out.Set(0.85)
	case High:
		b.inst = instrument.New(sampleRate, instrument.Tonal())
		b.pre.Add(dsp.NewBandFilter(sampleRate, dsp.ShapeHighpass, 1800, 0.7, 0))
		b.pre.Add(dsp.NewEQ3Band(sampleRate, 0.8, 1.0, 1.1, 300, 3000))
		b.tail.Add(dsp.NewDelay(sampleRate, 340, 0.3, 0.16))
		b.tail.Add(dsp.NewReverb(sampleRate, 0.55, 0.18))
		b.out.Set(0.8)
	case Percussive:
		b.inst = instrument.New(sampleRate, instrument.Percussive())
		b.pre.Add(dsp.NewBandFilter(sampleRate, dsp.ShapeBandpass, 1200, 0.9, 0))
		b.pre.Add(dsp.NewCompressor(sampleRate, -16, 4, 2, 90, 2))
		b.tail.Add(dsp.NewDelay(sampleRate, 160, 0.15, 0.08))
		b.tail.Add(dsp.NewReverb(sampleRate, 0.3, 0.08))
		b.out.Set(0.9)
	case Transient:
		b.inst = instrument.New(sampleRate, instrument.Config{
			MaxVoices: 8,
			Waveform:  voice.OscNoise,
			Partials:  1,
			Amp:       0.6,
		})
		b.pre.Add(dsp.NewBandFilter(sampleRate, dsp.ShapeHighpass, 2800, 0.7, 0))
		b.wet = dsp.NewChain(dsp.NewCompressor(sampleRate, -30, 8, 1, 60, 4))
		b.wetMix = 0.5
		b.tail.Add(dsp.NewReverb(sampleRate, 0.25, 0.1))
		b.out.Set(0.7)
	case Organ:
		b.inst = instrument.New(sampleRate, instrument.Sustained())
		b.pre.Add(dsp.NewBandFilter(sampleRate, dsp.ShapeLowpass, 6000, 0.7, 0))
		b.pre.Add(dsp.NewEQ3Band(sampleRate, 1.0, 1.05, 0.95, 220, 2200))
		b.tail.Add(dsp.NewSaturator(1.6))
		b.tail.Add(dsp.NewTremolo(sampleRate, 0.15, 0.8))
		b.tail.Add(dsp.NewDelay(sampleRate, 400, 0.3, 0.12))
		b.tail.Add(dsp.NewReverb(sampleRate, 0.7, 0.22))
		b.out.Set(0.75)
	case Focus:
		b.inst = instrument.New(sampleRate, instrument.Config{
			MaxVoices: 24,
			Waveform:  voice.OscSine,
			Partials:  2,
			Detune:    2,
			Amp:       0.7,
		})
		b.pre.Add(dsp.NewEQ3Band(sampleRate, 1.0, 1.0, 1.0, 250, 2500))
		b.tail.Add(dsp.NewDelay(sampleRate, 300, 0.2, 0.1))
		b.tail.Add(dsp.NewReverb(sampleRate, 0.5, 0.14))
		b.out.Set(1.0)
	}
	return b
}

// Bus returns the bus under id.
func (g *Graph) Bus(id ID) *Bus { return g.buses[id] }

// Master returns the master gain stage.
func (g *Graph) Master() *dsp.Gain { return g.master }

// Classify picks the destination bus for a source. The focused source and
// persistent inputs upgrade to the focus bus regardless of category, with
// one exception: organ-class sources stay on the organ bus so their
// sustained character survives selection.
func (g *Graph) Classify(p *voice.Params, source int, focused, persistent bool) ID {
	cat := voice.InferCategory(p)
	if cat == voice.CategorySustained {
		return Organ
	}
	if focused || persistent {
		return Focus
	}
	switch cat {
	case voice.CategoryTransient:
		return Transient
	case voice.CategoryPercussive:
		return Percussive
	case voice.CategoryBass:
		return Low
	default:
		return bandFor(source)
	}
}

// bandFor spreads unclassified sources across the three band buses. The
// FNV hash keeps a source on the same bus across fires without any routing
// table to maintain.
func bandFor(source int) ID {
	h := fnv.New32a()
	h.Write([]byte{byte(source), byte(source >> 8), byte(source >> 16), byte(source >> 24)})
	return ID(h.Sum32() % 3)
}

// NoteRouted records routing activity for the duck heuristic. When a
// bass-band note and a transient hit land within DuckWindow of each other
// the summed mix ducks; the return value tells the caller to schedule
// RestoreDuck after DuckHold.
func (g *Graph) NoteRouted(id ID) bool {
	if id != Low && id != Transient {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if id == Low {
		g.lastBass = now
	} else {
		g.lastTransient = now
	}
	if g.lastBass.IsZero() || g.lastTransient.IsZero() {
		return false
	}
	var gap time.Duration
	if g.lastBass.After(g.lastTransient) {
		gap = g.lastBass.Sub(g.lastTransient)
	} else {
		gap = g.lastTransient.Sub(g.lastBass)
	}
	if gap > g.cfg.DuckWindow {
		return false
	}
	g.duck.Set(g.cfg.DuckAmount)
	return true
}

// RestoreDuck returns the summed mix to unity gain.
func (g *Graph) RestoreDuck() {
	g.duck.Set(1)
}

// DuckHold returns how long an engaged duck should persist.
func (g *Graph) DuckHold() time.Duration { return g.cfg.DuckHold }

// Ducked reports whether the duck gain is currently below unity.
func (g *Graph) Ducked() bool { return g.duck.Level() < 1 }

// TotalActiveVoices sums sounding voices across every bus instrument.
func (g *Graph) TotalActiveVoices() int {
	n := 0
	for _, b := range g.buses {
		n += b.inst.ActiveVoices()
	}
	return n
}

// SetSpatial toggles the spatializer stage on every bus.
func (g *Graph) SetSpatial(on bool) {
	for _, b := range g.buses {
		b.SetSpatial(on)
	}
}

// SilenceAll stops every instrument and clears all effect state, the
// shared mix included.
func (g *Graph) SilenceAll() {
	for _, b := range g.buses {
		b.Silence()
	}
	g.comp.Reset()
	g.lim.Reset()
	g.duck.Set(1)
	g.mu.Lock()
	g.lastBass = time.Time{}
	g.lastTransient = time.Time{}
	g.mu.Unlock()
}

// RenderFrame advances every bus one frame and runs the shared mix:
// sum → duck → compressor → limiter → master. focusExtra and
// transientExtra are mono signals injected into those buses (pooled
// oscillators and pre-rendered percussion hits).
func (g *Graph) RenderFrame(focusExtra, transientExtra float32) (float32, float32) {
	var l, r float32
	for id := ID(0); id < Count; id++ {
		var extra float32
		switch id {
		case Focus:
			extra = focusExtra
		case Transient:
			extra = transientExtra
		}
		bl, br := g.buses[id].RenderFrame(extra, extra)
		l += bl
		r += br
	}
	l, r = g.duck.Process(l, r)
	l, r = g.comp.Process(l, r)
	l, r = g.lim.Process(l, r)
	return g.master.Process(l, r)
}
