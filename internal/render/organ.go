package render

// OrganNote is one layer of an organ voicing.
type OrganNote struct {
	Freq  float64
	Level float64
}

// OrganVoicing expands a root frequency into the organ stack: root, octave
// at half level, fifth above the octave at roughly a third. When the
// remaining cross-bus voice budget cannot fit all three layers the fifth
// drops first, then the octave, so the root always sounds.
func OrganVoicing(rootFreq, velocity float64, budget int) []OrganNote {
	notes := []OrganNote{
		{Freq: rootFreq, Level: velocity},
		{Freq: rootFreq * 2, Level: velocity * 0.5},
		{Freq: rootFreq * 3, Level: velocity * 0.35},
	}
	if budget >= len(notes) {
		return notes
	}
	if budget <= 0 {
		return notes[:1]
	}
	return notes[:budget]
}
