package schedule

// Slot is a half-open interval [Start, End) inside a work window.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Minutes returns the slot length in minutes.
func (s Slot) Minutes() int {
	return int(s.End - s.Start)
}

// NoOverflow is returned by Pack when every duration fits the window.
const NoOverflow = -1

// Pack lays the given durations sequentially into [windowStart, windowEnd),
// starting at windowStart with no gaps and no reordering. It stops at the
// first duration whose end would pass windowEnd and returns the index of that
// duration; every duration from that index on is unscheduled. A candidate end
// exactly equal to windowEnd still fits. The second return value is NoOverflow
// when all durations are placed.
func Pack(windowStart, windowEnd TimeOfDay, durations []int) ([]Slot, int) {
	slots := make([]Slot, 0, len(durations))
	cursor := windowStart

	for i, d := range durations {
		slot, ok := Step(cursor, windowEnd, d)
		if !ok {
			return slots, i
		}
		slots = append(slots, slot)
		cursor = slot.End
	}

	return slots, NoOverflow
}

// Step attempts to place a single duration at cursor within a window ending
// at windowEnd. It reports false when the slot would overflow the window.
func Step(cursor, windowEnd TimeOfDay, duration int) (Slot, bool) {
	end := cursor.Add(duration)
	if end > windowEnd {
		return Slot{}, false
	}
	return Slot{Start: cursor, End: end}, true
}
