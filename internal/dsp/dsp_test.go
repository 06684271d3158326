package dsp

import (
	"math"
	"testing"
)

func TestChainSkipsNilStages(t *testing.T) {
	c := NewChain(nil, NewGain(0.5), nil)
	if c.Len() != 1 {
		t.Fatalf("expected 1 stage, got %d", c.Len())
	}
	l, r := c.Process(1, 1)
	if l != 0.5 || r != 0.5 {
		t.Errorf("expected 0.5, got l=%f r=%f", l, r)
	}
}

func TestGainSetAndProcess(t *testing.T) {
	g := NewGain(1)
	g.Set(0.25)
	if got := g.Level(); got != 0.25 {
		t.Fatalf("Level() = %f, want 0.25", got)
	}
	l, _ := g.Process(0.8, 0.8)
	if math.Abs(float64(l)-0.2) > 1e-6 {
		t.Errorf("expected 0.2, got %f", l)
	}
	g.Set(-1)
	if g.Level() != 0 {
		t.Error("negative gain should clamp to 0")
	}
}

func TestLimiterHoldsCeiling(t *testing.T) {
	lim := NewLimiter(44100, 0.95, 80)
	var peak float32
	for i := 0; i < 2000; i++ {
		l, r := lim.Process(2.0, -2.0)
		if a := abs32(l); a > peak {
			peak = a
		}
		if a := abs32(r); a > peak {
			peak = a
		}
	}
	if peak > 0.9501 {
		t.Errorf("limiter exceeded ceiling: %f", peak)
	}
}

func TestLimiterRecoversAfterPeak(t *testing.T) {
	lim := NewLimiter(44100, 0.95, 20)
	lim.Process(4, 4)
	for i := 0; i < 44100; i++ {
		lim.Process(0.1, 0.1)
	}
	l, _ := lim.Process(0.5, 0.5)
	if l < 0.45 {
		t.Errorf("limiter gain should return toward unity, got %f for 0.5 in", l)
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	c := NewCompressor(44100, -10, 4, 1, 50, 0)
	var out float32
	for i := 0; i < 1000; i++ {
		out, _ = c.Process(1.0, 1.0)
	}
	if out >= 1.0 {
		t.Errorf("compressor should reduce loud signals, got %f", out)
	}
}

func TestBandFilterLowpassPassesDC(t *testing.T) {
	f := NewBandFilter(44100, ShapeLowpass, 500, 0.7, 0)
	var l float32
	for i := 0; i < 5000; i++ {
		l, _ = f.Process(0.5, 0.5)
	}
	if math.Abs(float64(l)-0.5) > 0.05 {
		t.Errorf("lowpass should pass DC, got %f", l)
	}
}

func TestBandFilterHighpassBlocksDC(t *testing.T) {
	f := NewBandFilter(44100, ShapeHighpass, 500, 0.7, 0)
	var l float32
	for i := 0; i < 5000; i++ {
		l, _ = f.Process(0.5, 0.5)
	}
	if math.Abs(float64(l)) > 0.05 {
		t.Errorf("highpass should block DC, got %f", l)
	}
}

func TestSaturatorBoundsOutput(t *testing.T) {
	s := NewSaturator(4)
	l, r := s.Process(10, -10)
	if abs32(l) > 1.2 || abs32(r) > 1.2 {
		t.Errorf("saturator output should be bounded, got l=%f r=%f", l, r)
	}
	l, _ = s.Process(0.1, 0.1)
	if l == 0 {
		t.Error("expected non-zero saturator output")
	}
}

func TestDelayEchoesInput(t *testing.T) {
	d := NewDelay(44100, 100, 0.5, 0.5)
	d.Process(1, 1)
	for i := 0; i < 4408; i++ {
		d.Process(0, 0)
	}
	l, _ := d.Process(0, 0)
	if math.Abs(float64(l)) < 0.01 {
		t.Errorf("expected delayed echo, got %f", l)
	}
}

func TestReverbLeavesTail(t *testing.T) {
	r := NewReverb(44100, 0.6, 0.4)
	r.Process(1, 1)
	var maxOut float32
	for i := 0; i < 10000; i++ {
		l, _ := r.Process(0, 0)
		if a := abs32(l); a > maxOut {
			maxOut = a
		}
	}
	if maxOut < 0.001 {
		t.Error("expected reverb tail")
	}
}

func TestTremoloStaysWithinUnity(t *testing.T) {
	tr := NewTremolo(44100, 1.0, 5)
	var maxOut float32
	for i := 0; i < 44100; i++ {
		l, _ := tr.Process(1, 1)
		if l > maxOut {
			maxOut = l
		}
		if l < 0 {
			t.Fatalf("tremolo output went negative for positive input: %f", l)
		}
	}
	if maxOut > 1.001 {
		t.Errorf("tremolo should not exceed unity, got %f", maxOut)
	}
}

func TestEQ3BandUnityGain(t *testing.T) {
	eq := NewEQ3Band(44100, 1.0, 1.0, 1.0, 300, 3000)
	for i := 0; i < 1000; i++ {
		eq.Process(0.5, 0.5)
	}
	l, r := eq.Process(0.5, 0.5)
	if math.Abs(float64(l)-0.5) > 0.1 || math.Abs(float64(r)-0.5) > 0.1 {
		t.Errorf("expected ~0.5 with unity gains, got l=%f r=%f", l, r)
	}
}
