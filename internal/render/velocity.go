// Package render turns a fired event plus its source parameters into the
// concrete numbers the buses need: a staged velocity, a note duration, the
// organ voicing stack and pre-rendered percussion hits. Everything here is
// pure computation so it can be tested without an audio device.
package render

import (
	"math"

	"github.com/synfire/synfire-go/internal/voice"
)

const (
	// volumeFloorDB is the trim level treated as fully muted.
	volumeFloorDB = -60
	// volumeFadeDB is the span above the floor over which gain fades
	// linearly to zero instead of following the dB curve.
	volumeFadeDB = 6
)

// ComputeVelocity stages the final velocity for an event: the connection
// weight maps onto a bounded base, then the source's category attenuation
// and volume trim apply in order.
func ComputeVelocity(weight float64, p *voice.Params) float64 {
	v := weight * 0.8
	if v < 0.3 {
		v = 0.3
	} else if v > 0.9 {
		v = 0.9
	}

	switch voice.InferCategory(p) {
	case voice.CategoryBass:
		v *= 0.75
	case voice.CategoryTransient:
		v *= 0.85
	case voice.CategoryPad:
		v *= 0.7
	case voice.CategorySustained:
		v *= 0.8
	}

	v *= VolumeToGain(p.SourceVolume)
	if p.ScalingFactor > 0 {
		v *= p.ScalingFactor
	}
	if v > 1 {
		v = 1
	}
	return v
}

// VolumeToGain maps a dB trim onto linear gain. Boosts use a gentler curve
// than cuts so cranked sources do not dominate, and trims close to the
// floor fade linearly to true silence rather than leaving a residual hiss.
func VolumeToGain(db float64) float64 {
	if db <= volumeFloorDB {
		return 0
	}
	if db >= 0 {
		return math.Pow(10, db/40)
	}
	g := math.Pow(10, db/20)
	if db < volumeFloorDB+volumeFadeDB {
		g *= (db - volumeFloorDB) / volumeFadeDB
	}
	return g
}

// NoteDuration derives how long a triggered note holds before release from
// the envelope: attack plus decay, extended by most of the release when
// there is a sustain level to release from. Never shorter than 100ms so
// even degenerate envelopes produce an audible event.
func NoteDuration(env voice.Envelope) float64 {
	d := env.Attack + env.Decay
	if env.Sustain > 0.001 {
		d += env.Release * 0.8
	}
	if d < 0.1 {
		d = 0.1
	}
	return d
}
