package render

import (
	"github.com/synfire/synfire-go/internal/dsp"
	"github.com/synfire/synfire-go/internal/voice"
)

// Hit is a pre-rendered mono percussion event. The transient bus drains it
// frame by frame; once exhausted it is garbage.
type Hit struct {
	buf []float32
	pos int
}

// NextFrame returns the next sample and whether the hit still has content.
func (h *Hit) NextFrame() (float32, bool) {
	if h == nil || h.pos >= len(h.buf) {
		return 0, false
	}
	s := h.buf[h.pos]
	h.pos++
	return s, true
}

// Done reports whether the hit has been fully drained.
func (h *Hit) Done() bool { return h == nil || h.pos >= len(h.buf) }

// Len returns the hit length in frames.
func (h *Hit) Len() int {
	if h == nil {
		return 0
	}
	return len(h.buf)
}

// BuildTransientHit renders one noise-based hit shaped by the source's
// filter settings: noise through bandpass, highpass, a notch scooping the
// honky middle and a peak restoring presence, under a fast decay envelope.
// The hit is rendered up front because its length is tiny (a few thousand
// frames) and doing so keeps per-frame work off the transient path.
func BuildTransientHit(sampleRate int, p *voice.Params, velocity float64) *Hit {
	decay := p.Envelope.Decay
	if decay <= 0 {
		decay = 0.05
	}
	if decay > 0.5 {
		decay = 0.5
	}
	n := int((p.Envelope.Attack + decay) * float64(sampleRate))
	if n < 32 {
		n = 32
	}

	center := p.FilterCutoff
	if center < 1000 {
		center = 6000
	}
	chain := dsp.NewChain(
		dsp.NewBandFilter(sampleRate, dsp.ShapeBandpass, center, p.FilterQ, 0),
		dsp.NewBandFilter(sampleRate, dsp.ShapeHighpass, center*0.4, 0.7, 0),
		dsp.NewBandFilter(sampleRate, dsp.ShapeNotch, center*0.55, 1.2, 0),
		dsp.NewBandFilter(sampleRate, dsp.ShapePeak, center*1.1, 2, 3),
	)

	attackFrames := int(p.Envelope.Attack * float64(sampleRate))
	if attackFrames < 1 {
		attackFrames = 1
	}
	decayFrames := n - attackFrames
	if decayFrames < 1 {
		decayFrames = 1
	}

	buf := make([]float32, n)
	lfsr := uint32(0x5A21)
	for i := range buf {
		lfsr = (lfsr >> 1) ^ (-(lfsr & 1) & 0xB400)
		s := float32(lfsr)/float32(0x7FFF)*2 - 1
		s, _ = chain.Process(s, s)

		var env float32
		if i < attackFrames {
			env = float32(i) / float32(attackFrames)
		} else {
			t := float32(i-attackFrames) / float32(decayFrames)
			env = (1 - t) * (1 - t)
		}
		buf[i] = s * env * float32(velocity)
	}
	return &Hit{buf: buf}
}
