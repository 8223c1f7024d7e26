package binds

import "fmt"

// Range is a half-open interval [Start, End) of slot indices reserved for
// one purpose.
type Range struct {
	Start int
	End   int
}

// Capacity returns the number of slots in the range.
func (r Range) Capacity() int {
	return r.End - r.Start
}

// Contains reports whether slot falls inside the range.
func (r Range) Contains(slot int) bool {
	return slot >= r.Start && slot < r.End
}

// Ranges partitions the chord space into the three reserved intervals.
// They must be disjoint; their union need not cover the full space, and
// unused tail slots simply stay unassigned.
type Ranges struct {
	Crafting Range
	Static   Range
	Dynamic  Range
}

// DefaultRanges mirrors the layout the game-side config was built around:
// 3000 crafting slots (1500 items at two slots each), 1000 static command
// slots, 1000 dynamic slots.
func DefaultRanges() Ranges {
	return Ranges{
		Crafting: Range{Start: 0, End: 3000},
		Static:   Range{Start: 3000, End: 4000},
		Dynamic:  Range{Start: 4000, End: 5000},
	}
}

// Validate checks that the ranges are well-formed, ordered, disjoint, and
// fit inside a chord space of the given size.
func (r Ranges) Validate(spaceCount int) error {
	ranges := []struct {
		name string
		r    Range
	}{
		{"crafting", r.Crafting},
		{"static", r.Static},
		{"dynamic", r.Dynamic},
	}

	prevEnd := 0
	for _, entry := range ranges {
		if entry.r.Start < 0 || entry.r.End < entry.r.Start {
			return fmt.Errorf("%s range [%d, %d) is malformed", entry.name, entry.r.Start, entry.r.End)
		}
		if entry.r.Start < prevEnd {
			return fmt.Errorf("%s range [%d, %d) overlaps the previous range ending at %d",
				entry.name, entry.r.Start, entry.r.End, prevEnd)
		}
		if entry.r.End > spaceCount {
			return fmt.Errorf("%s range [%d, %d) exceeds chord space of %d slots",
				entry.name, entry.r.Start, entry.r.End, spaceCount)
		}
		prevEnd = entry.r.End
	}
	return nil
}
