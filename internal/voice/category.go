package voice

import "strings"

// Category is the timbral class driving bus selection and velocity
// attenuation. The explicit field on Params is authoritative; the name and
// parameter heuristics below are a secondary inference layer kept for
// sources authored without a category.
type Category int

const (
	CategoryUnset Category = iota
	CategoryTonal
	CategoryPercussive
	CategoryTransient // bright, hat-like
	CategorySustained // organ-like
	CategoryPad
	CategoryBass
)

func (c Category) String() string {
	switch c {
	case CategoryTonal:
		return "tonal"
	case CategoryPercussive:
		return "percussive"
	case CategoryTransient:
		return "transient"
	case CategorySustained:
		return "sustained"
	case CategoryPad:
		return "pad"
	case CategoryBass:
		return "bass"
	default:
		return "unset"
	}
}

// CategoryFromString parses an explicit category tag.
func CategoryFromString(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tonal":
		return CategoryTonal
	case "percussive", "drum":
		return CategoryPercussive
	case "transient", "bright":
		return CategoryTransient
	case "sustained", "organ":
		return CategorySustained
	case "pad":
		return CategoryPad
	case "bass":
		return CategoryBass
	default:
		return CategoryUnset
	}
}

// Thresholds for the heuristic classifier.
const (
	transientCutoffHz   = 2000
	transientMaxDecay   = 0.25
	sustainedMinLevel   = 0.5
	sustainedMinRelease = 0.8
	bassMaxPitchHz      = 110
	percussiveMaxDecay  = 0.35
)

// InferCategory resolves the effective category for p. The explicit field
// wins; otherwise the name is sniffed, then filter and envelope shape.
func InferCategory(p *Params) Category {
	if p.Category != CategoryUnset {
		return p.Category
	}

	name := strings.ToLower(p.Name)
	switch {
	case containsAny(name, "organ", "pipe", "choir"):
		return CategorySustained
	case containsAny(name, "hat", "hi-hat", "hihat", "shaker", "tick"):
		return CategoryTransient
	case containsAny(name, "kick", "snare", "drum", "perc", "clap"):
		return CategoryPercussive
	case containsAny(name, "pad", "wash", "drone"):
		return CategoryPad
	case containsAny(name, "bass", "sub"):
		return CategoryBass
	}

	env := p.Envelope
	if p.Filter == FilterHighpass && p.FilterCutoff > transientCutoffHz &&
		env.Decay < transientMaxDecay && env.Sustain == 0 {
		return CategoryTransient
	}
	if env.Sustain >= sustainedMinLevel && env.Release >= sustainedMinRelease && p.Osc == OscSine {
		return CategorySustained
	}
	if env.Sustain == 0 && env.Decay < percussiveMaxDecay {
		return CategoryPercussive
	}
	if p.BasePitch > 0 && p.BasePitch < bassMaxPitchHz {
		return CategoryBass
	}
	return CategoryTonal
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
