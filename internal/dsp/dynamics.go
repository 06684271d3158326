package dsp

import "math"

// Compressor reduces dynamic range above a threshold using a per-channel
// envelope follower.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32
	release   float32
	makeup    float32
	envL      float32
	envR      float32
}

// NewCompressor creates a compressor.
// thresholdDB: level above which gain reduction starts (e.g. -18)
// ratio: compression ratio (4 = 4:1)
// attackMs, releaseMs: envelope times
// makeupDB: output makeup gain
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    coeff(attackMs, sr),
		release:   coeff(releaseMs, sr),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
}

func coeff(ms float32, sampleRate float64) float32 {
	if ms <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(float64(ms)*sampleRate/1000)))
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	c.envL = follow(c.envL, abs32(l), c.attack, c.release)
	c.envR = follow(c.envR, abs32(r), c.attack, c.release)
	return l * c.gainFor(c.envL) * c.makeup, r * c.gainFor(c.envR) * c.makeup
}

func (c *Compressor) gainFor(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.envL, c.envR = 0, 0
}

// Limiter is a hard-knee peak limiter. It is the terminal safety stage of
// the shared mix: instantaneous attack, ramped release back to unity.
type Limiter struct {
	ceiling float32
	release float32
	gain    float32
}

// NewLimiter creates a limiter with the given ceiling (linear, e.g. 0.95).
func NewLimiter(sampleRate int, ceiling float32, releaseMs float32) *Limiter {
	return &Limiter{
		ceiling: clamp(ceiling, 0.1, 1),
		release: coeff(releaseMs, float64(sampleRate)),
		gain:    1,
	}
}

func (lim *Limiter) Process(l, r float32) (float32, float32) {
	peak := abs32(l)
	if ar := abs32(r); ar > peak {
		peak = ar
	}
	if peak*lim.gain > lim.ceiling && peak > 0 {
		lim.gain = lim.ceiling / peak
	} else {
		lim.gain += lim.release * (1 - lim.gain)
	}
	return l * lim.gain, r * lim.gain
}

func (lim *Limiter) Reset() {
	lim.gain = 1
}

func follow(env, in, attack, release float32) float32 {
	if in > env {
		return env + attack*(in-env)
	}
	return env + release*(in-env)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
