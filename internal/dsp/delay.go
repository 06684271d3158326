package dsp

// Delay is a stereo feedback delay with a wet send.
type Delay struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	wet        float32
}

// NewDelay creates a delay line.
// delayMs: delay time in milliseconds
// feedback: regeneration amount 0..1
// wet: wet mix 0..1
func NewDelay(sampleRate int, delayMs float64, feedback, wet float32) *Delay {
	n := int(delayMs * float64(sampleRate) / 1000)
	if n < 1 {
		n = 1
	}
	return &Delay{
		bufL:     make([]float32, n),
		bufR:     make([]float32, n),
		feedback: clamp(feedback, 0, 0.95),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	tapL := d.bufL[d.pos]
	tapR := d.bufR[d.pos]
	d.bufL[d.pos] = l + tapL*d.feedback
	d.bufR[d.pos] = r + tapR*d.feedback
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l + tapL*d.wet, r + tapR*d.wet
}

func (d *Delay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}
