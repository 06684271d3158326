// Package spatial provides the optional per-bus stereo positioning stage:
// a simplified binaural cue built from an independent gain and micro-delay
// per channel, driven by the horizontal offset between a source's visual
// position and the camera.
package spatial

import (
	"math"
	"sync/atomic"
)

const (
	// maxDelaySec is the largest interaural delay applied (0.4ms).
	maxDelaySec = 0.0004
	// minGain is the floor for the far channel's gain.
	minGain = 0.6
	// offsetScale maps scene-space horizontal offset onto pan.
	offsetScale = 0.15
)

// Panner applies the positioning cue. Process runs on the audio thread;
// SetPan and PanFromOffset can be called from anywhere.
type Panner struct {
	pan atomic.Uint64 // float64 bits, [-1, 1]

	bufL, bufR []float32
	pos        int
}

func NewPanner(sampleRate int) *Panner {
	n := int(math.Ceil(maxDelaySec*float64(sampleRate))) + 1
	return &Panner{
		bufL: make([]float32, n),
		bufR: make([]float32, n),
	}
}

// SetPan positions the stage directly; values clamp to [-1, 1].
func (p *Panner) SetPan(pan float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	p.pan.Store(math.Float64bits(pan))
}

// PanFromOffset derives pan from a scene-space horizontal offset between
// source and camera.
func (p *Panner) PanFromOffset(offsetX float64) {
	p.SetPan(offsetX * offsetScale)
}

// Pan returns the current pan value.
func (p *Panner) Pan() float64 {
	return math.Float64frombits(p.pan.Load())
}

func (p *Panner) Process(l, r float32) (float32, float32) {
	pan := p.Pan()

	// Near side keeps unity gain; far side drops toward minGain. The far
	// side also hears the signal slightly later.
	gainL, gainR := float32(1), float32(1)
	delayL, delayR := 0.0, 0.0
	if pan > 0 {
		gainL = float32(1 - pan*(1-minGain))
		delayL = pan * maxDelaySec
	} else if pan < 0 {
		gainR = float32(1 + pan*(1-minGain))
		delayR = -pan * maxDelaySec
	}

	p.bufL[p.pos] = l
	p.bufR[p.pos] = r

	n := len(p.bufL)
	sr := float64(n-1) / maxDelaySec
	outL := p.readDelayed(p.bufL, delayL*sr) * gainL
	outR := p.readDelayed(p.bufR, delayR*sr) * gainR

	p.pos++
	if p.pos >= n {
		p.pos = 0
	}
	return outL, outR
}

// readDelayed reads the sample delaySamples behind the write position with
// linear interpolation.
func (p *Panner) readDelayed(buf []float32, delaySamples float64) float32 {
	if delaySamples <= 0 {
		return buf[p.pos]
	}
	n := len(buf)
	read := float64(p.pos) - delaySamples
	for read < 0 {
		read += float64(n)
	}
	idx := int(read)
	frac := float32(read - float64(idx))
	next := idx + 1
	if next >= n {
		next = 0
	}
	return buf[idx]*(1-frac) + buf[next]*frac
}

func (p *Panner) Reset() {
	for i := range p.bufL {
		p.bufL[i] = 0
		p.bufR[i] = 0
	}
	p.pos = 0
}
