// Package voice holds the canonical per-source sound description: one
// strongly typed Params record per source, the frequency assignment table,
// and the timbral category model used for bus classification.
package voice

import "strings"

// OscFamily selects the oscillator family for a source.
type OscFamily int

const (
	OscSine OscFamily = iota
	OscTriangle
	OscSquare
	OscSaw
	OscNoise
)

// FilterType selects the per-source filter response.
type FilterType int

const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

// CurveShape selects envelope segment shaping.
type CurveShape int

const (
	CurveLinear CurveShape = iota
	CurveExponential
)

// Envelope is an ADSR description in seconds (sustain is a level 0..1).
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64

	AttackCurve  CurveShape
	ReleaseCurve CurveShape
}

// Params is the canonical per-source record. Legacy flat and nested field
// names are merged into this one structure at the boundary by Apply; the
// render path only ever reads these fields.
type Params struct {
	Name     string
	Category Category

	Envelope Envelope

	Osc      OscFamily
	Partials int
	Detune   float64 // cents applied to the second partial

	Filter       FilterType
	FilterCutoff float64 // Hz
	FilterQ      float64

	ReverbSend float64 // 0..1
	DelaySend  float64 // 0..1

	TremoloFreq  float64 // Hz
	TremoloDepth float64 // 0..1
	VibratoFreq  float64 // Hz
	VibratoDepth float64 // semitones

	SourceVolume  float64 // output trim in dB; 0 = unity
	ScalingFactor float64 // per-timbre scaling override, 1 = none

	BasePitch float64 // Hz; 0 = use the frequency assignment
}

// Default returns the template used the first time a source is referenced.
func Default() Params {
	return Params{
		Envelope: Envelope{
			Attack:  0.01,
			Decay:   0.15,
			Sustain: 0.6,
			Release: 0.3,
		},
		Osc:           OscSine,
		Partials:      1,
		Filter:        FilterLowpass,
		FilterCutoff:  8000,
		FilterQ:       0.707,
		ReverbSend:    0.2,
		DelaySend:     0.1,
		ScalingFactor: 1,
	}
}

// Apply updates one field by its external parameter name. Both legacy flat
// names ("filterFrequency") and nested forms ("filter.frequency") are
// accepted and resolve to the same field, so callers never need scattered
// fallbacks. Returns false for unrecognized names.
func Apply(p *Params, name string, value any) bool {
	switch strings.ToLower(name) {
	case "name", "tag":
		if s, ok := value.(string); ok {
			p.Name = s
			return true
		}
		return false
	case "category":
		if s, ok := value.(string); ok {
			p.Category = CategoryFromString(s)
			return true
		}
		return false
	case "oscillatortype", "oscillator.type", "osc":
		if s, ok := value.(string); ok {
			p.Osc = oscFromString(s)
			return true
		}
		return false
	case "filtertype", "filter.type":
		if s, ok := value.(string); ok {
			p.Filter = filterFromString(s)
			return true
		}
		return false
	}

	v, ok := toFloat(value)
	if !ok {
		return false
	}
	switch strings.ToLower(name) {
	case "attack", "envelope.attack":
		p.Envelope.Attack = clampF(v, 0, 10)
	case "decay", "envelope.decay":
		p.Envelope.Decay = clampF(v, 0, 10)
	case "sustain", "envelope.sustain":
		p.Envelope.Sustain = clampF(v, 0, 1)
	case "release", "envelope.release":
		p.Envelope.Release = clampF(v, 0, 20)
	case "partials", "oscillator.partials":
		p.Partials = int(clampF(v, 1, 8))
	case "detune", "oscillator.detune":
		p.Detune = clampF(v, -100, 100)
	case "filterfrequency", "filter.frequency", "filtercutoff", "filter.cutoff":
		p.FilterCutoff = clampF(v, 10, 20000)
	case "filterq", "filter.q":
		p.FilterQ = clampF(v, 0.1, 20)
	case "reverbsend", "sends.reverb", "reverb":
		p.ReverbSend = clampF(v, 0, 1)
	case "delaysend", "sends.delay", "delay":
		p.DelaySend = clampF(v, 0, 1)
	case "tremolofreq", "tremolo.freq":
		p.TremoloFreq = clampF(v, 0, 20)
	case "tremolodepth", "tremolo.depth":
		p.TremoloDepth = clampF(v, 0, 1)
	case "vibratofreq", "vibrato.freq":
		p.VibratoFreq = clampF(v, 0, 20)
	case "vibratodepth", "vibrato.depth":
		p.VibratoDepth = clampF(v, 0, 12)
	case "sourcevolume", "volume":
		p.SourceVolume = clampF(v, -96, 24)
	case "scalingfactor", "scaling":
		p.ScalingFactor = clampF(v, 0, 4)
	case "basepitch", "pitch":
		p.BasePitch = clampF(v, 0, 20000)
	default:
		return false
	}
	return true
}

func oscFromString(s string) OscFamily {
	switch strings.ToLower(s) {
	case "triangle":
		return OscTriangle
	case "square", "pulse":
		return OscSquare
	case "saw", "sawtooth":
		return OscSaw
	case "noise":
		return OscNoise
	default:
		return OscSine
	}
}

func filterFromString(s string) FilterType {
	switch strings.ToLower(s) {
	case "highpass", "hp":
		return FilterHighpass
	case "bandpass", "bp":
		return FilterBandpass
	case "notch":
		return FilterNotch
	default:
		return FilterLowpass
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
