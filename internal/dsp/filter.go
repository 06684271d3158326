package dsp

import "math"

// FilterShape selects the response of a BandFilter.
type FilterShape int

const (
	ShapeLowpass FilterShape = iota
	ShapeHighpass
	ShapeBandpass
	ShapeNotch
	ShapePeak
)

// BandFilter is the per-bus band shaping stage. Lowpass, highpass and
// bandpass use cascaded one-pole sections; notch and peak use an RBJ
// biquad so the percussion chain can scoop and boost narrow bands.
type BandFilter struct {
	shape FilterShape

	// one-pole state
	alpha    float32
	lpL, lpR float32
	bpL, bpR float32

	// biquad coefficients and state (notch/peak)
	b0, b1, b2 float32
	a1, a2     float32
	x1L, x2L   float32
	y1L, y2L   float32
	x1R, x2R   float32
	y1R, y2R   float32
}

// NewBandFilter creates a band filter.
// cutoff: corner/center frequency in Hz
// q: resonance for notch/peak (ignored for one-pole shapes)
// gainDB: peak boost/cut in dB (peak shape only)
func NewBandFilter(sampleRate int, shape FilterShape, cutoff, q, gainDB float64) *BandFilter {
	f := &BandFilter{shape: shape}
	nyquist := float64(sampleRate) / 2
	cutoff = clamp64(cutoff, 10, nyquist*0.99)
	switch shape {
	case ShapeNotch, ShapePeak:
		f.computeBiquad(sampleRate, cutoff, clamp64(q, 0.1, 20), gainDB)
	default:
		rc := 1.0 / (2 * math.Pi * cutoff)
		dt := 1.0 / float64(sampleRate)
		f.alpha = float32(dt / (rc + dt))
	}
	return f
}

func (f *BandFilter) computeBiquad(sampleRate int, freq, q, gainDB float64) {
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64
	switch f.shape {
	case ShapePeak:
		a := math.Pow(10, gainDB/40)
		b0 = 1 + alpha*a
		b1 = -2 * cosW0
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW0
		a2 = 1 - alpha/a
	default: // notch
		b0 = 1
		b1 = -2 * cosW0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	}
	f.b0 = float32(b0 / a0)
	f.b1 = float32(b1 / a0)
	f.b2 = float32(b2 / a0)
	f.a1 = float32(a1 / a0)
	f.a2 = float32(a2 / a0)
}

func (f *BandFilter) Process(l, r float32) (float32, float32) {
	switch f.shape {
	case ShapeLowpass:
		f.lpL += f.alpha * (l - f.lpL)
		f.lpR += f.alpha * (r - f.lpR)
		return f.lpL, f.lpR
	case ShapeHighpass:
		f.lpL += f.alpha * (l - f.lpL)
		f.lpR += f.alpha * (r - f.lpR)
		return l - f.lpL, r - f.lpR
	case ShapeBandpass:
		f.lpL += f.alpha * (l - f.lpL)
		f.lpR += f.alpha * (r - f.lpR)
		f.bpL += f.alpha * (f.lpL - f.bpL)
		f.bpR += f.alpha * (f.lpR - f.bpR)
		return f.lpL - f.bpL, f.lpR - f.bpR
	default:
		outL := f.b0*l + f.b1*f.x1L + f.b2*f.x2L - f.a1*f.y1L - f.a2*f.y2L
		f.x2L, f.x1L = f.x1L, l
		f.y2L, f.y1L = f.y1L, outL
		outR := f.b0*r + f.b1*f.x1R + f.b2*f.x2R - f.a1*f.y1R - f.a2*f.y2R
		f.x2R, f.x1R = f.x1R, r
		f.y2R, f.y1R = f.y1R, outR
		return outL, outR
	}
}

func (f *BandFilter) Reset() {
	f.lpL, f.lpR, f.bpL, f.bpR = 0, 0, 0, 0
	f.x1L, f.x2L, f.y1L, f.y2L = 0, 0, 0, 0
	f.x1R, f.x2R, f.y1R, f.y2R = 0, 0, 0, 0
}
