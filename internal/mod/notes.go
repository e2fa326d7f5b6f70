package mod

import "fmt"

// periodTable holds the untuned ProTracker periods for octaves 1-3.
var periodTable = [36]int{
	// C-1, C#1, D-1, ..., B-1
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	// C-2, C#2, D-2, ..., B-2
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	// C-3, C#3, D-3, ..., B-3
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

const (
	MinPeriod = 113
	MaxPeriod = 856
)

// NoteName returns the tracker name ("C-2", "A#3") of the table entry
// closest to period, or "---" for an empty period.
func NoteName(period int) string {
	if period <= 0 {
		return "---"
	}
	best, bestDiff := 0, -1
	for i, p := range periodTable {
		d := p - period
		if d < 0 {
			d = -d
		}
		if bestDiff < 0 || d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return fmt.Sprintf("%s%d", noteNames[best%12], best/12+1)
}

// String formats the cell the way trackers display it, e.g. "C-2 01 C40".
func (i Instruction) String() string {
	sample := ".."
	if i.SampleIndex > 0 {
		sample = fmt.Sprintf("%02X", i.SampleIndex)
	}
	effect := "..."
	if i.HasEffect() {
		effect = fmt.Sprintf("%X%02X", i.Effect.Code, i.Effect.Param)
	}
	return fmt.Sprintf("%s %s %s", NoteName(i.Period), sample, effect)
}
