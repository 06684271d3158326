package bus

import (
	"testing"
	"time"

	"github.com/synfire/synfire-go/internal/voice"
)

func newTestGraph(now *time.Time) *Graph {
	return NewGraph(44100, DefaultConfig(), func() time.Time { return *now })
}

func TestClassifyCategories(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)

	cases := []struct {
		cat  voice.Category
		want ID
	}{
		{voice.CategoryTransient, Transient},
		{voice.CategoryPercussive, Percussive},
		{voice.CategoryBass, Low},
		{voice.CategorySustained, Organ},
	}
	for _, c := range cases {
		p := voice.Default()
		p.Category = c.cat
		if got := g.Classify(&p, 1, false, false); got != c.want {
			t.Errorf("%v routed to %v, want %v", c.cat, got, c.want)
		}
	}
}

func TestClassifyTonalStable(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	p := voice.Default()
	p.Category = voice.CategoryTonal

	first := g.Classify(&p, 42, false, false)
	if first != Low && first != Mid && first != High {
		t.Fatalf("tonal source routed to %v, want a band bus", first)
	}
	for i := 0; i < 10; i++ {
		if got := g.Classify(&p, 42, false, false); got != first {
			t.Fatal("band routing changed between fires of the same source")
		}
	}
}

func TestClassifyFocusUpgrade(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	p := voice.Default()
	p.Category = voice.CategoryPercussive

	if got := g.Classify(&p, 1, true, false); got != Focus {
		t.Errorf("focused source routed to %v, want focus", got)
	}
	if got := g.Classify(&p, 1, false, true); got != Focus {
		t.Errorf("persistent source routed to %v, want focus", got)
	}
}

func TestClassifyOrganException(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	p := voice.Default()
	p.Category = voice.CategorySustained
	// Sustained sources keep the organ bus even when focused.
	if got := g.Classify(&p, 1, true, false); got != Organ {
		t.Errorf("focused organ source routed to %v, want organ", got)
	}
}

func TestDuckEngagesOnOverlap(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)

	if g.NoteRouted(Low) {
		t.Fatal("duck engaged with no transient activity")
	}
	now = now.Add(100 * time.Millisecond)
	if !g.NoteRouted(Transient) {
		t.Fatal("duck should engage when transient lands near bass")
	}
	if !g.Ducked() {
		t.Error("duck gain not applied")
	}
	g.RestoreDuck()
	if g.Ducked() {
		t.Error("duck gain not restored")
	}
}

func TestDuckIgnoresWideGaps(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	g.NoteRouted(Low)
	now = now.Add(time.Second)
	if g.NoteRouted(Transient) {
		t.Error("duck engaged across a one-second gap")
	}
}

func TestDuckIgnoresOtherBuses(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	if g.NoteRouted(Mid) || g.NoteRouted(Organ) {
		t.Error("non-participating bus engaged the duck")
	}
}

func TestRenderFrameBounded(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	env := voice.Envelope{Attack: 0.001, Decay: 0.05, Sustain: 0.5, Release: 0.1}
	for id := ID(0); id < Count; id++ {
		for i := 0; i < 8; i++ {
			g.Bus(id).Instrument().Trigger(110*float64(i+1), 1.0, env, 44100)
		}
	}
	for i := 0; i < 44100; i++ {
		l, r := g.RenderFrame(0.5, 0.5)
		if l > 1 || l < -1 || r > 1 || r < -1 {
			t.Fatalf("mix exceeded [-1,1] at frame %d: l=%f r=%f", i, l, r)
		}
	}
}

func TestRenderFrameProducesSound(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	env := voice.Envelope{Attack: 0.001, Decay: 0.1, Sustain: 0.5, Release: 0.1}
	g.Bus(Mid).Instrument().Trigger(440, 0.8, env, 44100)
	var peak float32
	for i := 0; i < 4410; i++ {
		l, _ := g.RenderFrame(0, 0)
		if l < 0 {
			l = -l
		}
		if l > peak {
			peak = l
		}
	}
	if peak == 0 {
		t.Error("expected audible output")
	}
}

func TestSilenceAllResetsEverything(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	env := voice.Envelope{Attack: 0.001, Decay: 0.1, Sustain: 0.5, Release: 0.1}
	g.Bus(Mid).Instrument().Trigger(440, 0.8, env, 44100)
	g.NoteRouted(Low)
	g.NoteRouted(Transient)

	g.SilenceAll()
	if g.TotalActiveVoices() != 0 {
		t.Error("voices survived SilenceAll")
	}
	if g.Ducked() {
		t.Error("duck survived SilenceAll")
	}
	// The duck heuristic starts fresh: one bass note alone cannot engage.
	if g.NoteRouted(Low) {
		t.Error("stale transient timestamp survived SilenceAll")
	}
}

func TestTotalActiveVoices(t *testing.T) {
	now := time.Unix(0, 0)
	g := newTestGraph(&now)
	env := voice.Envelope{Attack: 0.001, Decay: 0.1, Sustain: 0.5, Release: 0.1}
	g.Bus(Low).Instrument().Trigger(110, 0.5, env, 44100)
	g.Bus(High).Instrument().Trigger(880, 0.5, env, 44100)
	if got := g.TotalActiveVoices(); got != 2 {
		t.Errorf("total voices = %d, want 2", got)
	}
}
