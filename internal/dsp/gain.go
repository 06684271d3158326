package dsp

import (
	"math"
	"sync/atomic"
)

// Gain is a settable gain stage. The value is stored as a float32 bit
// pattern so the audio thread reads it lock-free while control goroutines
// update it (duck engage/restore, per-bus trim, master volume).
type Gain struct {
	value atomic.Uint32
}

// NewGain creates a gain stage at the given linear level.
func NewGain(level float32) *Gain {
	g := &Gain{}
	g.Set(level)
	return g
}

// Set updates the gain level. Negative values clamp to silence.
func (g *Gain) Set(level float32) {
	if level < 0 {
		level = 0
	}
	g.value.Store(math.Float32bits(level))
}

// Level returns the current gain level.
func (g *Gain) Level() float32 {
	return math.Float32frombits(g.value.Load())
}

func (g *Gain) Process(l, r float32) (float32, float32) {
	v := g.Level()
	return l * v, r * v
}

func (g *Gain) Reset() {}
