package pool

import (
	"math"

	"github.com/synfire/synfire-go/internal/voice"
)

type gainStage int

const (
	gainIdle gainStage = iota
	gainAttack
	gainHold
	gainRelease
)

// Pair is one pooled oscillator plus gain stage. The oscillator free-runs
// for the pair's whole lifetime; notes are expressed purely as gain
// envelopes so re-triggering never clicks from phase restarts.
type Pair struct {
	wave voice.OscFamily
	freq float64

	phase float64
	lfsr  uint32

	stage    gainStage
	gain     float32
	target   float32
	step     float32
	holdLeft int
	relLen   int
}

func newPair(wave voice.OscFamily, freq float64) (*Pair, error) {
	return &Pair{wave: wave, freq: freq, lfsr: 0x6A09}, nil
}

// Trigger ramps the gain to level over attack frames, holds, then releases
// over release frames. A retrigger while sounding restarts the ramp from
// the current gain, never from zero.
func (p *Pair) Trigger(level float32, attack, hold, release int) {
	if level <= 0 {
		return
	}
	if attack < 1 {
		attack = 1
	}
	if release < 1 {
		release = 1
	}
	p.stage = gainAttack
	p.target = level
	p.step = (level - p.gain) / float32(attack)
	p.holdLeft = hold
	p.relLen = release
}

// Silence cuts the gain immediately.
func (p *Pair) Silence() {
	p.stage = gainIdle
	p.gain = 0
	p.target = 0
}

// Sounding reports whether the pair currently produces output.
func (p *Pair) Sounding() bool {
	return p.stage != gainIdle || p.gain > 0
}

func (p *Pair) renderFrame(sampleRate float64) float32 {
	switch p.stage {
	case gainAttack:
		p.gain += p.step
		if (p.step >= 0 && p.gain >= p.target) || (p.step < 0 && p.gain <= p.target) {
			p.gain = p.target
			p.stage = gainHold
		}
	case gainHold:
		p.holdLeft--
		if p.holdLeft <= 0 {
			p.stage = gainRelease
			p.step = p.gain / float32(p.relLen)
		}
	case gainRelease:
		p.gain -= p.step
		if p.gain <= 0 {
			p.gain = 0
			p.stage = gainIdle
		}
	default:
		if p.gain == 0 {
			return 0
		}
	}

	s := p.oscSample()
	p.phase += p.freq / sampleRate
	p.phase -= math.Floor(p.phase)
	return float32(s) * p.gain
}

func (p *Pair) oscSample() float64 {
	switch p.wave {
	case voice.OscTriangle:
		return 2*math.Abs(2*p.phase-1) - 1
	case voice.OscSquare:
		if p.phase < 0.5 {
			return 1
		}
		return -1
	case voice.OscSaw:
		return 1 - 2*p.phase
	case voice.OscNoise:
		p.lfsr = (p.lfsr >> 1) ^ (-(p.lfsr & 1) & 0xB400)
		return float64(p.lfsr)/float64(0x7FFF)*2 - 1
	default:
		return math.Sin(2 * math.Pi * p.phase)
	}
}
