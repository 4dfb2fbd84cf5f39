package telemetry

import (
	"math"

	"ctrneat/population"
)

// HallOfFameEntry records an inducted organism and the generation it was
// observed in. The organism is a deep copy frozen at induction time.
type HallOfFameEntry struct {
	Organism   *population.Organism
	Generation int
}

// HallOfFame keeps the best organisms ever observed across a run, ordered
// best-first and capped at a fixed capacity.
type HallOfFame struct {
	capacity int
	entries  []HallOfFameEntry
}

// NewHallOfFame creates a hall of fame holding at most capacity entries.
// A non-positive capacity defaults to 1.
func NewHallOfFame(capacity int) *HallOfFame {
	if capacity < 1 {
		capacity = 1
	}
	return &HallOfFame{capacity: capacity}
}

// Consider offers an organism for induction. It is copied and inserted in
// fitness order if it beats the current worst entry or capacity remains;
// organisms with NaN fitness are never inducted.
func (h *HallOfFame) Consider(o *population.Organism, generation int) bool {
	if o == nil || math.IsNaN(float64(o.Fitness)) {
		return false
	}
	pos := len(h.entries)
	for i, e := range h.entries {
		if o.Fitness > e.Organism.Fitness {
			pos = i
			break
		}
	}
	if pos >= h.capacity {
		return false
	}

	entry := HallOfFameEntry{Organism: o.Copy(), Generation: generation}
	h.entries = append(h.entries, HallOfFameEntry{})
	copy(h.entries[pos+1:], h.entries[pos:])
	h.entries[pos] = entry
	if len(h.entries) > h.capacity {
		h.entries = h.entries[:h.capacity]
	}
	return true
}

// Best returns the best entry ever inducted, or nil if empty.
func (h *HallOfFame) Best() *HallOfFameEntry {
	if len(h.entries) == 0 {
		return nil
	}
	return &h.entries[0]
}

// Entries returns the inducted entries, best first.
func (h *HallOfFame) Entries() []HallOfFameEntry {
	return h.entries
}

// Len returns the number of inducted entries.
func (h *HallOfFame) Len() int {
	return len(h.entries)
}
