// Package instrument implements the polyphonic instruments that back each
// bus: a fixed bank of voices with per-voice ADSR envelopes and a strict
// oldest-first overflow policy, so behavior under polyphony pressure is
// deterministic and testable.
package instrument

import (
	"math"

	"github.com/synfire/synfire-go/internal/voice"
)

// Config describes one instrument.
type Config struct {
	MaxVoices int
	Waveform  voice.OscFamily
	Partials  int     // 1..3 summed harmonics
	Detune    float64 // cents applied to the second partial
	Amp       float64 // output scale applied after voice summing
}

// Percussive returns the stock short-decay configuration.
func Percussive() Config {
	return Config{MaxVoices: 12, Waveform: voice.OscTriangle, Partials: 1, Amp: 0.8}
}

// Sustained returns the stock slow-attack, long-release configuration used
// by the organ bus.
func Sustained() Config {
	return Config{MaxVoices: 16, Waveform: voice.OscSine, Partials: 2, Detune: 4, Amp: 0.6}
}

// Tonal returns the default pitched configuration.
func Tonal() Config {
	return Config{MaxVoices: 16, Waveform: voice.OscSine, Partials: 2, Detune: 2, Amp: 0.7}
}

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

type vstate struct {
	started  int64 // trigger sequence number, drives oldest-first eviction
	freq     float64
	velocity float64
	phase    float64
	phase2   float64
	lfsr     uint32

	env      float64
	envState envState
	adsr     voice.Envelope
	holdLeft int // frames until auto note-off; <0 holds until released
}

// Polyphonic is a bank of identical voices.
type Polyphonic struct {
	sampleRate float64
	cfg        Config
	voices     []vstate
	seq        int64
}

func New(sampleRate int, cfg Config) *Polyphonic {
	if cfg.MaxVoices <= 0 {
		cfg.MaxVoices = 16
	}
	if cfg.Partials <= 0 {
		cfg.Partials = 1
	}
	if cfg.Amp <= 0 {
		cfg.Amp = 0.7
	}
	inst := &Polyphonic{
		sampleRate: float64(sampleRate),
		cfg:        cfg,
		voices:     make([]vstate, cfg.MaxVoices),
	}
	for i := range inst.voices {
		inst.voices[i].envState = envOff
	}
	return inst
}

// Trigger starts a voice. When the bank is within 2 voices of its maximum
// it first force-releases min(4, ceil(25% of active)) of the oldest
// voices — never a random pick — then allocates.
func (inst *Polyphonic) Trigger(freq, velocity float64, adsr voice.Envelope, durFrames int) {
	if active := inst.ActiveVoices(); inst.cfg.MaxVoices-active <= 2 {
		inst.releaseOldest(overflowReleaseCount(active))
	}

	slot := -1
	for i := range inst.voices {
		if inst.voices[i].envState == envOff {
			slot = i
			break
		}
	}
	if slot == -1 {
		// Bank still full of releasing tails: reuse the oldest outright so
		// the incoming note is never dropped.
		slot = inst.oldestSlot()
	}

	inst.seq++
	inst.voices[slot] = vstate{
		started:  inst.seq,
		freq:     freq,
		velocity: clampF(velocity, 0, 1),
		lfsr:     0x2A57,
		envState: envAttack,
		adsr:     sanitize(adsr),
		holdLeft: durFrames,
	}
}

// overflowReleaseCount implements the shared overflow rule: up to 4 voices
// or 25% of the active count, whichever is smaller (minimum 1).
func overflowReleaseCount(active int) int {
	n := (active + 3) / 4
	if n > 4 {
		n = 4
	}
	if n < 1 {
		n = 1
	}
	return n
}

// releaseOldest moves the n oldest non-releasing voices into release.
func (inst *Polyphonic) releaseOldest(n int) {
	for ; n > 0; n-- {
		oldest := -1
		var oldestSeq int64
		for i := range inst.voices {
			v := &inst.voices[i]
			if v.envState == envOff || v.envState == envRelease {
				continue
			}
			if oldest == -1 || v.started < oldestSeq {
				oldest = i
				oldestSeq = v.started
			}
		}
		if oldest == -1 {
			return
		}
		inst.voices[oldest].envState = envRelease
	}
}

func (inst *Polyphonic) oldestSlot() int {
	oldest := 0
	for i := 1; i < len(inst.voices); i++ {
		if inst.voices[i].started < inst.voices[oldest].started {
			oldest = i
		}
	}
	return oldest
}

// ReleaseAll moves every sounding voice into release.
func (inst *Polyphonic) ReleaseAll() {
	for i := range inst.voices {
		if inst.voices[i].envState != envOff {
			inst.voices[i].envState = envRelease
		}
	}
}

// Silence stops every voice immediately.
func (inst *Polyphonic) Silence() {
	for i := range inst.voices {
		inst.voices[i].envState = envOff
		inst.voices[i].env = 0
	}
}

// ActiveVoices counts voices still sounding, release tails included.
func (inst *Polyphonic) ActiveVoices() int {
	n := 0
	for i := range inst.voices {
		if inst.voices[i].envState != envOff {
			n++
		}
	}
	return n
}

// ReleasingVoices counts voices currently in their release phase.
func (inst *Polyphonic) ReleasingVoices() int {
	n := 0
	for i := range inst.voices {
		if inst.voices[i].envState == envRelease {
			n++
		}
	}
	return n
}

// RenderFrame advances every voice by one sample and returns the mono sum.
func (inst *Polyphonic) RenderFrame() float32 {
	var sum float64
	for i := range inst.voices {
		v := &inst.voices[i]
		if v.envState == envOff {
			continue
		}
		inst.advanceEnv(v)
		if v.envState == envOff {
			continue
		}

		s := inst.sample(v)
		sum += s * v.env * v.velocity

		step := v.freq / inst.sampleRate
		v.phase += step
		v.phase -= math.Floor(v.phase)
		if inst.cfg.Partials > 1 {
			detune := math.Pow(2, inst.cfg.Detune/1200)
			v.phase2 += step * 2 * detune
			v.phase2 -= math.Floor(v.phase2)
		}

		if v.holdLeft > 0 {
			v.holdLeft--
			if v.holdLeft == 0 && v.envState != envRelease {
				v.envState = envRelease
			}
		}
	}
	return float32(sum * inst.cfg.Amp)
}

func (inst *Polyphonic) sample(v *vstate) float64 {
	s := oscSample(inst.cfg.Waveform, v.phase, &v.lfsr)
	if inst.cfg.Partials > 1 {
		s = (s + 0.5*oscSample(inst.cfg.Waveform, v.phase2, &v.lfsr)) / 1.5
	}
	return s
}

func (inst *Polyphonic) advanceEnv(v *vstate) {
	sr := inst.sampleRate
	switch v.envState {
	case envAttack:
		step := 1.0 / (v.adsr.Attack * sr)
		v.env += step
		if v.env >= 1 {
			v.env = 1
			v.envState = envDecay
		}
	case envDecay:
		step := (1 - v.adsr.Sustain) / (v.adsr.Decay * sr)
		v.env -= step
		if v.env <= v.adsr.Sustain {
			v.env = v.adsr.Sustain
			if v.adsr.Sustain <= 0.0001 {
				v.envState = envOff
			} else {
				v.envState = envSustain
			}
		}
	case envSustain:
		// Held until holdLeft elapses or a forced release.
	case envRelease:
		step := 1.0 / (v.adsr.Release * sr)
		if v.adsr.ReleaseCurve == voice.CurveExponential {
			v.env *= 1 - step*4
		} else {
			v.env -= step
		}
		if v.env <= 0.0005 {
			v.env = 0
			v.envState = envOff
		}
	}
}

func sanitize(e voice.Envelope) voice.Envelope {
	if e.Attack < 0.001 {
		e.Attack = 0.001
	}
	if e.Decay < 0.001 {
		e.Decay = 0.001
	}
	if e.Release < 0.01 {
		e.Release = 0.01
	}
	e.Sustain = clampF(e.Sustain, 0, 1)
	return e
}

func oscSample(w voice.OscFamily, phase float64, lfsr *uint32) float64 {
	switch w {
	case voice.OscTriangle:
		return 2*math.Abs(2*phase-1) - 1
	case voice.OscSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case voice.OscSaw:
		return 1 - 2*phase
	case voice.OscNoise:
		*lfsr = (*lfsr >> 1) ^ (-(*lfsr & 1) & 0xB400)
		return float64(*lfsr)/float64(0x7FFF)*2 - 1
	default:
		return math.Sin(2 * math.Pi * phase)
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
