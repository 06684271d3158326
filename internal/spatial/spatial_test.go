package spatial

import (
	"math"
	"testing"
)

func TestCenterPanIsTransparent(t *testing.T) {
	p := NewPanner(44100)
	for i := 0; i < 100; i++ {
		l, r := p.Process(0.5, -0.5)
		if l != 0.5 || r != -0.5 {
			t.Fatalf("center pan altered signal: l=%f r=%f", l, r)
		}
	}
}

func TestHardRightAttenuatesLeft(t *testing.T) {
	p := NewPanner(44100)
	p.SetPan(1)
	var peakL, peakR float32
	for i := 0; i < 200; i++ {
		l, r := p.Process(1, 1)
		if a := float32(math.Abs(float64(l))); a > peakL {
			peakL = a
		}
		if a := float32(math.Abs(float64(r))); a > peakR {
			peakR = a
		}
	}
	if math.Abs(float64(peakR)-1) > 1e-6 {
		t.Errorf("near channel should keep unity, got %f", peakR)
	}
	if math.Abs(float64(peakL)-0.6) > 1e-6 {
		t.Errorf("far channel should floor at 0.6, got %f", peakL)
	}
}

func TestFarChannelIsDelayed(t *testing.T) {
	sr := 44100
	p := NewPanner(sr)
	p.SetPan(1)

	// Impulse on both channels; the left (far) side must respond later.
	l, r := p.Process(1, 1)
	if r == 0 {
		t.Fatal("near channel should pass the impulse immediately")
	}
	if l != 0 {
		// Full pan delays by 0.4ms, well over one sample.
		t.Fatalf("far channel leaked the impulse instantly: %f", l)
	}
	delayFrames := int(0.0004 * float64(sr))
	found := false
	for i := 0; i < delayFrames+2; i++ {
		l, _ = p.Process(0, 0)
		if math.Abs(float64(l)) > 0.01 {
			found = true
			break
		}
	}
	if !found {
		t.Error("delayed impulse never arrived on the far channel")
	}
}

func TestSetPanClamps(t *testing.T) {
	p := NewPanner(44100)
	p.SetPan(3)
	if got := p.Pan(); got != 1 {
		t.Errorf("pan = %f, want clamp to 1", got)
	}
	p.SetPan(-3)
	if got := p.Pan(); got != -1 {
		t.Errorf("pan = %f, want clamp to -1", got)
	}
}

func TestPanFromOffsetScales(t *testing.T) {
	p := NewPanner(44100)
	p.PanFromOffset(2)
	if got := p.Pan(); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("pan = %f, want 0.3 for offset 2", got)
	}
	p.PanFromOffset(-100)
	if got := p.Pan(); got != -1 {
		t.Errorf("pan = %f, want clamp for large offset", got)
	}
}

func TestResetClearsDelayState(t *testing.T) {
	p := NewPanner(44100)
	p.SetPan(1)
	p.Process(1, 1)
	p.Reset()
	p.SetPan(0)
	l, r := p.Process(0, 0)
	if l != 0 || r != 0 {
		t.Errorf("stale delay content after Reset: l=%f r=%f", l, r)
	}
}
