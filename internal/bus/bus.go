// Package bus implements the fixed routing graph: a small set of named
// signal chains built once at startup, each feeding a shared final mix
// through a compressor and limiter. Buses are never created lazily and
// never destroyed while the engine runs.
package bus

import (
	"sync/atomic"

	"github.com/synfire/synfire-go/internal/dsp"
	"github.com/synfire/synfire-go/internal/instrument"
	"github.com/synfire/synfire-go/internal/spatial"
)

// ID names a bus.
type ID int

const (
	Low ID = iota
	Mid
	High
	Percussive
	Transient
	Organ
	Focus
	Count
)

func (id ID) String() string {
	switch id {
	case Low:
		return "low"
	case Mid:
		return "mid"
	case High:
		return "high"
	case Percussive:
		return "percussive"
	case Transient:
		return "transient"
	case Organ:
		return "organ"
	case Focus:
		return "focus"
	default:
		return "invalid"
	}
}

// Bus is one signal chain: instrument → band shaping → (optional parallel
// compressed path) → tail effects → output gain → optional spatializer.
type Bus struct {
	id   ID
	inst *instrument.Polyphonic

	pre    *dsp.Chain // band filter, EQ, optional compressor
	wet    *dsp.Chain // transient bus only: compressed parallel path
	wetMix float32
	tail   *dsp.Chain // saturation/tremolo (organ), delay, reverb
	out    *dsp.Gain

	panner    *spatial.Panner
	spatialOn atomic.Bool
}

// Instrument returns the bus's dedicated polyphonic instrument.
func (b *Bus) Instrument() *instrument.Polyphonic { return b.inst }

// Panner returns the bus's spatializer stage.
func (b *Bus) Panner() *spatial.Panner { return b.panner }

// OutGain returns the bus output gain stage.
func (b *Bus) OutGain() *dsp.Gain { return b.out }

// SetSpatial switches the spatializer in or out of the path. The stage is
// allocated once at startup; toggling only changes routing, so repeated
// enable/disable cycles leak nothing.
func (b *Bus) SetSpatial(on bool) {
	if on && b.panner != nil {
		b.panner.Reset()
	}
	b.spatialOn.Store(on && b.panner != nil)
}

// RenderFrame advances the bus by one frame. extraL/extraR carry signal
// routed into the bus from outside its instrument (pooled oscillators on
// the focus bus, per-event percussion hits on the transient bus).
func (b *Bus) RenderFrame(extraL, extraR float32) (float32, float32) {
	m := b.inst.RenderFrame()
	l := m + extraL
	r := m + extraR

	l, r = b.pre.Process(l, r)
	if b.wet != nil {
		// Parallel wet/dry blend: the compressed path tames transient
		// peaks while the dry path keeps the attack.
		wl, wr := b.wet.Process(l, r)
		l = l*(1-b.wetMix) + wl*b.wetMix
		r = r*(1-b.wetMix) + wr*b.wetMix
	}
	l, r = b.tail.Process(l, r)
	l, r = b.out.Process(l, r)

	if b.spatialOn.Load() {
		l, r = b.panner.Process(l, r)
	}
	return l, r
}

// Silence stops the instrument and clears effect state.
func (b *Bus) Silence() {
	b.inst.Silence()
	b.pre.Reset()
	if b.wet != nil {
		b.wet.Reset()
	}
	b.tail.Reset()
	if b.panner != nil {
		b.panner.Reset()
	}
}
