package dsp

import "github.com/synfire/synfire-go/internal/lfo"

// Tremolo modulates amplitude with a shared LFO. The organ bus runs it
// slow and shallow for motion; per-source tremolo settings map onto depth
// and rate directly.
type Tremolo struct {
	osc        lfo.LFO
	sampleRate float64
}

// NewTremolo creates a tremolo stage. depth 0..1, rate in Hz.
func NewTremolo(sampleRate int, depth, rateHz float64) *Tremolo {
	t := &Tremolo{sampleRate: float64(sampleRate)}
	t.osc.Set(clamp64(depth, 0, 1), rateHz, lfo.WaveSine)
	return t
}

// SetDepthRate reconfigures the modulation. Safe before rendering starts;
// during playback the engine rebuilds the stage instead.
func (t *Tremolo) SetDepthRate(depth, rateHz float64) {
	t.osc.Set(clamp64(depth, 0, 1), rateHz, lfo.WaveSine)
}

func (t *Tremolo) Process(l, r float32) (float32, float32) {
	// Map LFO [-depth, depth] onto gain [1-depth, 1] so full depth dips to
	// silence without exceeding unity.
	m := float32(1 - (t.osc.Sample(t.sampleRate)+t.osc.Depth())*0.5)
	return l * m, r * m
}

func (t *Tremolo) Reset() {
	t.osc.Reset()
}
