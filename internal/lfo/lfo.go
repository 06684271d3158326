// Package lfo provides a low-frequency oscillator used for tremolo,
// vibrato and the organ bus's slow motion. One LFO is shared per stage,
// not per voice.
package lfo

import "math"

// Waveform constants.
const (
	WaveSine     = 0
	WaveTriangle = 1
	WaveSquare   = 2
	WaveSaw      = 3
	WaveRandom   = 4
)

// LFO produces per-sample modulation in [-depth, +depth].
type LFO struct {
	depth    float64
	rateHz   float64
	waveform int
	phase    float64 // [0, 1)
	randVal  float64 // held sample for sample-and-hold
}

// Set configures depth (units depend on the consumer: gain factor,
// semitones, Hz), rate and waveform.
func (l *LFO) Set(depth, rateHz float64, waveform int) {
	l.depth = depth
	l.rateHz = rateHz
	if waveform < WaveSine || waveform > WaveRandom {
		waveform = WaveSine
	}
	l.waveform = waveform
}

// Depth returns the configured modulation depth.
func (l *LFO) Depth() float64 { return l.depth }

// Active reports whether the LFO produces any modulation.
func (l *LFO) Active() bool { return l.depth != 0 && l.rateHz != 0 }

// Sample advances by one sample and returns the modulation value.
// Returns 0 when depth or rate is zero.
func (l *LFO) Sample(sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate == 0 {
		return 0
	}

	var v float64
	switch l.waveform {
	case WaveTriangle:
		if l.phase < 0.5 {
			v = 4*l.phase - 1
		} else {
			v = 3 - 4*l.phase
		}
	case WaveSquare:
		if l.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case WaveSaw:
		v = 1 - 2*l.phase
	case WaveRandom:
		v = l.randVal
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}

	prev := l.phase
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1 {
		l.phase -= 1
	}
	if l.waveform == WaveRandom && l.phase < prev {
		// New held value each cycle; deterministic hash of prior state.
		l.randVal = math.Sin(l.phase*12345.6789 + l.randVal*67890.1234)
		l.randVal -= math.Floor(l.randVal)
		l.randVal = l.randVal*2 - 1
	}

	return v * l.depth
}

// Reset zeros phase and held random state.
func (l *LFO) Reset() {
	l.phase = 0
	l.randVal = 0
}
