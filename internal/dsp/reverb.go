package dsp

// Reverb is a Schroeder reverberator: parallel comb filters into serial
// allpass diffusers, mixed back as a wet send.
type Reverb struct {
	combs   [4]comb
	allpass [2]allpass
	wet     float32
}

type comb struct {
	buf []float32
	pos int
	fb  float32
}

type allpass struct {
	buf []float32
	pos int
	fb  float32
}

// NewReverb creates a reverb.
// decay: 0..1 controls tail length (comb feedback)
// wet: wet mix 0..1
func NewReverb(sampleRate int, decay, wet float32) *Reverb {
	base := sampleRate / 20 // 50ms base comb length
	fb := clamp(decay, 0, 0.93)
	r := &Reverb{wet: clamp(wet, 0, 1)}
	lens := [4]int{base, base * 1153 / 1000, base * 1327 / 1000, base * 1499 / 1000}
	for i := range r.combs {
		r.combs[i] = comb{buf: make([]float32, lens[i]), fb: fb}
	}
	apLens := [2]int{base * 331 / 1000, base * 199 / 1000}
	for i := range r.allpass {
		n := apLens[i]
		if n < 1 {
			n = 1
		}
		r.allpass[i] = allpass{buf: make([]float32, n), fb: 0.5}
	}
	return r
}

func (r *Reverb) Process(l, r2 float32) (float32, float32) {
	mono := (l + r2) * 0.5
	var tail float32
	for i := range r.combs {
		tail += r.combs[i].process(mono)
	}
	tail *= 0.25
	for i := range r.allpass {
		tail = r.allpass[i].process(tail)
	}
	return l + tail*r.wet, r2 + tail*r.wet
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		for j := range r.combs[i].buf {
			r.combs[i].buf[j] = 0
		}
		r.combs[i].pos = 0
	}
	for i := range r.allpass {
		for j := range r.allpass[i].buf {
			r.allpass[i].buf[j] = 0
		}
		r.allpass[i].pos = 0
	}
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpass) process(in float32) float32 {
	buffered := a.buf[a.pos]
	out := buffered - in
	a.buf[a.pos] = in + buffered*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}
