package dsp

import "math"

// Saturator applies tanh waveshaping. The organ bus uses it at low drive
// for warmth; it also bounds anything pathological fed into it.
type Saturator struct {
	drive float32
	trim  float32
}

// NewSaturator creates a saturator. drive > 1 increases harmonic content;
// output is trimmed to keep perceived level roughly constant.
func NewSaturator(drive float32) *Saturator {
	if drive < 0.1 {
		drive = 0.1
	}
	trim := float32(1)
	if drive > 1 {
		trim = 1 / float32(math.Tanh(float64(drive)))
	}
	return &Saturator{drive: drive, trim: trim}
}

func (s *Saturator) Process(l, r float32) (float32, float32) {
	return float32(math.Tanh(float64(l*s.drive))) * s.trim,
		float32(math.Tanh(float64(r*s.drive))) * s.trim
}

func (s *Saturator) Reset() {}
