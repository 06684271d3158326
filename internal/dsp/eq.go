package dsp

import "math"

// EQ3Band splits the signal at two crossover frequencies and applies an
// independent gain to each band. Gains of 1.0 pass the signal unchanged.
type EQ3Band struct {
	lowGain  float32
	midGain  float32
	highGain float32
	loAlpha  float32
	hiAlpha  float32
	loL, loR float32
	hiL, hiR float32
}

// NewEQ3Band creates a 3-band EQ with crossovers at lowFreq and highFreq Hz.
func NewEQ3Band(sampleRate int, lowGain, midGain, highGain, lowFreq, highFreq float32) *EQ3Band {
	dt := 1.0 / float64(sampleRate)
	loRC := 1.0 / (2 * math.Pi * float64(lowFreq))
	hiRC := 1.0 / (2 * math.Pi * float64(highFreq))
	return &EQ3Band{
		lowGain:  lowGain,
		midGain:  midGain,
		highGain: highGain,
		loAlpha:  float32(dt / (loRC + dt)),
		hiAlpha:  float32(dt / (hiRC + dt)),
	}
}

func (eq *EQ3Band) Process(l, r float32) (float32, float32) {
	eq.loL += eq.loAlpha * (l - eq.loL)
	eq.loR += eq.loAlpha * (r - eq.loR)
	eq.hiL += eq.hiAlpha * (l - eq.hiL)
	eq.hiR += eq.hiAlpha * (r - eq.hiR)

	highL := l - eq.hiL
	highR := r - eq.hiR
	midL := l - eq.loL - highL
	midR := r - eq.loR - highR

	return eq.loL*eq.lowGain + midL*eq.midGain + highL*eq.highGain,
		eq.loR*eq.lowGain + midR*eq.midGain + highR*eq.highGain
}

func (eq *EQ3Band) Reset() {
	eq.loL, eq.loR = 0, 0
	eq.hiL, eq.hiR = 0, 0
}
