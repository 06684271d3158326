// Package dsp provides the stereo processing stages the bus graph is
// composed of. Every stage implements Effector and is safe to drive from
// the audio render goroutine; parameter setters that may be called from
// other goroutines use atomics.
package dsp

// Effector processes one stereo frame and returns the processed frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of stages in order. A nil stage passed to Add is
// ignored so a failed stage constructor degrades the chain instead of
// breaking it.
type Chain struct {
	stages []Effector
}

func NewChain(stages ...Effector) *Chain {
	c := &Chain{}
	for _, s := range stages {
		c.Add(s)
	}
	return c
}

func (c *Chain) Add(s Effector) {
	if s == nil {
		return
	}
	c.stages = append(c.stages, s)
}

func (c *Chain) Len() int { return len(c.stages) }

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, s := range c.stages {
		l, r = s.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
