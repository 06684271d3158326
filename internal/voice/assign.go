package voice

import (
	"math"
	"sync"
)

// Band identifies a pitch register for frequency assignment.
type Band int

const (
	BandLow Band = iota
	BandMid
	BandHigh
	bandCount
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	case BandHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Assignment is a source's stable pitch placement. Band and pattern index
// never change unless explicitly reassigned; Override, when non-zero,
// replaces the table frequency.
type Assignment struct {
	Band          Band
	PatternIndex  int
	BaseFrequency float64
	Override      float64
}

// bandNotes is the fixed band→note table (minor pentatonic, semitone
// numbers with A4=69). Pitch selection walks each band's row.
var bandNotes = [bandCount][]int{
	BandLow:  {36, 39, 41, 43, 46},
	BandMid:  {55, 58, 60, 62, 65},
	BandHigh: {72, 75, 77, 79, 82},
}

// Assigner hands out stable frequency assignments. New sources cycle
// through the bands while a shared melodic index walks the note table
// forward to the end and back again, so consecutive sources form a line
// instead of a random scatter.
type Assigner struct {
	mu        sync.Mutex
	assigned  map[int]Assignment
	nextBand  Band
	walkIndex int
	walkDir   int
}

func NewAssigner() *Assigner {
	return &Assigner{
		assigned: make(map[int]Assignment),
		walkDir:  1,
	}
}

// Ensure returns the assignment for source, creating one deterministically
// on first reference.
func (a *Assigner) Ensure(source int) Assignment {
	a.mu.Lock()
	defer a.mu.Unlock()

	if as, ok := a.assigned[source]; ok {
		return as
	}

	band := a.nextBand
	a.nextBand = (a.nextBand + 1) % bandCount

	notes := bandNotes[band]
	idx := a.walkIndex
	a.walkIndex += a.walkDir
	if a.walkIndex >= len(notes) {
		a.walkIndex = len(notes) - 2
		a.walkDir = -1
	} else if a.walkIndex < 0 {
		a.walkIndex = 1
		a.walkDir = 1
	}

	as := Assignment{
		Band:          band,
		PatternIndex:  idx,
		BaseFrequency: FreqForSemitone(notes[idx%len(notes)]),
	}
	a.assigned[source] = as
	return as
}

// Lookup returns the assignment for source without creating one.
func (a *Assigner) Lookup(source int) (Assignment, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	as, ok := a.assigned[source]
	return as, ok
}

// SetOverride pins source to an explicit frequency (0 clears it). The
// source keeps its band; only the sounding pitch changes.
func (a *Assigner) SetOverride(source int, freq float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	as := a.assigned[source]
	as.Override = freq
	a.assigned[source] = as
}

// Reassign drops source's assignment so the next Ensure places it fresh.
func (a *Assigner) Reassign(source int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.assigned, source)
}

// Snapshot copies the full assignment table for silence/restore.
func (a *Assigner) Snapshot() map[int]Assignment {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[int]Assignment, len(a.assigned))
	for k, v := range a.assigned {
		out[k] = v
	}
	return out
}

// Restore replaces the assignment table with a snapshot.
func (a *Assigner) Restore(snap map[int]Assignment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assigned = make(map[int]Assignment, len(snap))
	for k, v := range snap {
		a.assigned[k] = v
	}
}

// Clear drops every assignment.
func (a *Assigner) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assigned = make(map[int]Assignment)
}

// refA4 anchors semitone 69 at 440Hz.
const refA4 = 440.0

// FreqForSemitone converts a semitone number (A4=69) to Hz.
func FreqForSemitone(n int) float64 {
	return refA4 * math.Pow(2, float64(n-69)/12)
}
