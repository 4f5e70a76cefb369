package spatial

import (
	"sort"
)

// SweepAxis keeps entities sorted by their coordinate on one axis so that a
// range query is two binary searches. Entity order is kept between updates:
// entities move little per tick, so the insertion sort in Update runs in
// close to linear time.
type SweepAxis struct {
	entries    []AxisEntry
	out        []uint32
	useInsSort bool
}

// AxisEntry is one entity projected onto the sweep axis.
type AxisEntry struct {
	Value    float64
	EntityID uint32
}

// NewSweepAxis preallocates for maxEntities.
func NewSweepAxis(maxEntities int) *SweepAxis {
	return &SweepAxis{
		entries:    make([]AxisEntry, 0, maxEntities),
		out:        make([]uint32, 0, maxEntities),
		useInsSort: true,
	}
}

// Update replaces the indexed set. values[i] is the coordinate of entity i;
// entities with skip[i] set are left out. skip may be nil.
func (s *SweepAxis) Update(values []float64, skip []bool) {
	// Reuse the previous order as the starting point for the sort. This
	// compacts in place: each write lands at or behind the read position.
	prev := s.entries
	s.entries = s.entries[:0:cap(s.entries)]
	seen := make([]bool, len(values))

	for _, e := range prev {
		id := int(e.EntityID)
		if id >= len(values) || seen[id] || (skip != nil && skip[id]) {
			continue
		}
		seen[id] = true
		s.entries = append(s.entries, AxisEntry{Value: values[id], EntityID: e.EntityID})
	}
	for i, v := range values {
		if seen[i] || (skip != nil && skip[i]) {
			continue
		}
		s.entries = append(s.entries, AxisEntry{Value: v, EntityID: uint32(i)})
	}

	if s.useInsSort {
		insertionSortEntries(s.entries)
	} else {
		sort.Slice(s.entries, func(i, j int) bool {
			return s.entries[i].Value < s.entries[j].Value
		})
	}
}

// Query returns the ids whose coordinate lies in [lo, hi]. The returned slice
// is reused by the next call.
func (s *SweepAxis) Query(lo, hi float64) []uint32 {
	s.out = s.out[:0]
	if lo > hi {
		return s.out
	}

	start := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Value >= lo })
	for i := start; i < len(s.entries) && s.entries[i].Value <= hi; i++ {
		s.out = append(s.out, s.entries[i].EntityID)
	}
	return s.out
}

// Len returns the number of indexed entities.
func (s *SweepAxis) Len() int { return len(s.entries) }

// SetInsertionSort switches between insertion sort (default, fast for nearly
// sorted input) and sort.Slice.
func (s *SweepAxis) SetInsertionSort(enabled bool) {
	s.useInsSort = enabled
}

func insertionSortEntries(es []AxisEntry) {
	for i := 1; i < len(es); i++ {
		key := es[i]
		j := i - 1
		for j >= 0 && es[j].Value > key.Value {
			es[j+1] = es[j]
			j--
		}
		es[j+1] = key
	}
}
