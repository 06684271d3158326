package voice

import (
	"math"
	"testing"
)

func TestApplyFlatAndNestedNamesMerge(t *testing.T) {
	a := Default()
	b := Default()
	if !Apply(&a, "filterFrequency", 1200.0) {
		t.Fatal("flat name rejected")
	}
	if !Apply(&b, "filter.frequency", 1200.0) {
		t.Fatal("nested name rejected")
	}
	if a.FilterCutoff != b.FilterCutoff {
		t.Errorf("flat and nested names disagree: %f vs %f", a.FilterCutoff, b.FilterCutoff)
	}
}

func TestApplyClampsRanges(t *testing.T) {
	p := Default()
	Apply(&p, "sustain", 3.0)
	if p.Envelope.Sustain != 1 {
		t.Errorf("sustain = %f, want clamp to 1", p.Envelope.Sustain)
	}
	Apply(&p, "sourceVolume", -200.0)
	if p.SourceVolume != -96 {
		t.Errorf("sourceVolume = %f, want clamp to -96", p.SourceVolume)
	}
}

func TestApplyUnknownNameRejected(t *testing.T) {
	p := Default()
	if Apply(&p, "nonsense", 1.0) {
		t.Error("unknown parameter name accepted")
	}
}

func TestApplyStringFields(t *testing.T) {
	p := Default()
	if !Apply(&p, "oscillatorType", "square") {
		t.Fatal("oscillatorType rejected")
	}
	if p.Osc != OscSquare {
		t.Errorf("osc = %v, want square", p.Osc)
	}
	if !Apply(&p, "category", "bass") {
		t.Fatal("category rejected")
	}
	if p.Category != CategoryBass {
		t.Errorf("category = %v, want bass", p.Category)
	}
}

func TestInferCategoryExplicitWins(t *testing.T) {
	p := Default()
	p.Name = "kick drum"
	p.Category = CategorySustained
	if got := InferCategory(&p); got != CategorySustained {
		t.Errorf("explicit category overridden: %v", got)
	}
}

func TestInferCategoryFromName(t *testing.T) {
	cases := []struct {
		name string
		want Category
	}{
		{"church organ", CategorySustained},
		{"closed hihat", CategoryTransient},
		{"snare 2", CategoryPercussive},
		{"warm pad", CategoryPad},
		{"sub bass", CategoryBass},
	}
	for _, c := range cases {
		p := Default()
		p.Name = c.name
		if got := InferCategory(&p); got != c.want {
			t.Errorf("InferCategory(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestInferCategoryFromEnvelope(t *testing.T) {
	// Bright highpassed zero-sustain short decay: transient.
	p := Default()
	p.Filter = FilterHighpass
	p.FilterCutoff = 4000
	p.Envelope = Envelope{Attack: 0.001, Decay: 0.1, Sustain: 0, Release: 0.05}
	if got := InferCategory(&p); got != CategoryTransient {
		t.Errorf("hat-like params classified as %v", got)
	}

	// High sustain, long release sine: sustained.
	p = Default()
	p.Envelope = Envelope{Attack: 0.2, Decay: 0.2, Sustain: 0.8, Release: 1.5}
	if got := InferCategory(&p); got != CategorySustained {
		t.Errorf("organ-like params classified as %v", got)
	}

	// Zero sustain short decay without the bright filter: percussive.
	p = Default()
	p.Envelope = Envelope{Attack: 0.001, Decay: 0.2, Sustain: 0, Release: 0.1}
	if got := InferCategory(&p); got != CategoryPercussive {
		t.Errorf("drum-like params classified as %v", got)
	}

	// Low explicit pitch: bass.
	p = Default()
	p.BasePitch = 55
	if got := InferCategory(&p); got != CategoryBass {
		t.Errorf("low-pitched params classified as %v", got)
	}
}

func TestAssignerStableAcrossCalls(t *testing.T) {
	a := NewAssigner()
	first := a.Ensure(7)
	for i := 0; i < 20; i++ {
		a.Ensure(i)
	}
	again := a.Ensure(7)
	if first != again {
		t.Errorf("assignment changed: %+v vs %+v", first, again)
	}
}

func TestAssignerCyclesBands(t *testing.T) {
	a := NewAssigner()
	seen := map[Band]bool{}
	for i := 0; i < 3; i++ {
		seen[a.Ensure(i).Band] = true
	}
	if len(seen) != 3 {
		t.Errorf("first three sources should span all bands, got %v", seen)
	}
}

func TestAssignerWalkReversesAtEnds(t *testing.T) {
	a := NewAssigner()
	var idx []int
	for i := 0; i < 10; i++ {
		idx = append(idx, a.Ensure(i).PatternIndex)
	}
	want := []int{0, 1, 2, 3, 4, 3, 2, 1, 0, 1}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("walk = %v, want %v", idx, want)
		}
	}
}

func TestAssignerSnapshotRestore(t *testing.T) {
	a := NewAssigner()
	for i := 0; i < 5; i++ {
		a.Ensure(i)
	}
	a.SetOverride(2, 333)
	snap := a.Snapshot()

	a.Clear()
	if _, ok := a.Lookup(2); ok {
		t.Fatal("Clear left assignments behind")
	}
	a.Restore(snap)
	as, ok := a.Lookup(2)
	if !ok || as.Override != 333 {
		t.Errorf("restore lost the override: %+v ok=%v", as, ok)
	}
}

func TestFreqForSemitoneAnchors(t *testing.T) {
	if got := FreqForSemitone(69); math.Abs(got-440) > 1e-9 {
		t.Errorf("semitone 69 = %f, want 440", got)
	}
	if got := FreqForSemitone(57); math.Abs(got-220) > 1e-9 {
		t.Errorf("semitone 57 = %f, want 220", got)
	}
}

func TestTableClonesLastEditedStyle(t *testing.T) {
	tbl := NewTable()
	tbl.Update(1, "attack", 0.5)
	tbl.Update(1, "name", "lead")

	p := tbl.Get(2)
	if p.Envelope.Attack != 0.5 {
		t.Errorf("new source should clone the last edited style, attack = %f", p.Envelope.Attack)
	}
	if p.Name != "" {
		t.Errorf("identity fields must not be cloned, name = %q", p.Name)
	}
}

func TestTableGetReturnsCopy(t *testing.T) {
	tbl := NewTable()
	p := tbl.Get(1)
	p.Envelope.Attack = 9
	if got := tbl.Get(1).Envelope.Attack; got == 9 {
		t.Error("Get must hand out a copy, not the live record")
	}
}

func TestTableUpdateUnknownName(t *testing.T) {
	tbl := NewTable()
	if tbl.Update(1, "bogus", 1.0) {
		t.Error("unknown parameter accepted")
	}
}
