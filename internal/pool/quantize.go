package pool

import "math"

// refA4 anchors semitone 69 at 440Hz, matching the frequency assignment
// table.
const refA4 = 440.0

// Quantize snaps a frequency to the nearest semitone number (A4=69). This
// bounds the pool's key space: however many notes play, keys only exist
// for semitones actually requested.
func Quantize(freq float64) int {
	if freq <= 0 {
		return 0
	}
	return int(math.Round(12*math.Log2(freq/refA4))) + 69
}

// FreqForSemitone converts a semitone number back to Hz.
func FreqForSemitone(n int) float64 {
	return refA4 * math.Pow(2, float64(n-69)/12)
}
