package schema

import (
	"sort"
)

// ===== FIELD NUMBER OVERLAP CHECKER =====

// intervalSet maintains a sorted, coalesced set of half-open integer
// intervals covering the field numbers a schema has laid claim to.
type intervalSet struct {
	starts []uint64
	ends   []uint64
}

// insert adds [start, end) to the set. It reports an overlap as a
// BadFormatString naming the offending field number and, when known, the
// field name.
func (s *intervalSet) insert(start, end uint64, name string) error {
	idx := sort.Search(len(s.starts), func(i int) bool {
		return s.starts[i] >= start
	})

	if idx > 0 && s.ends[idx-1] > start {
		return overlapError(start, name)
	}
	if idx < len(s.starts) && s.starts[idx] < end {
		return overlapError(start, name)
	}

	joinLeft := idx > 0 && s.ends[idx-1] == start
	joinRight := idx < len(s.starts) && s.starts[idx] == end

	switch {
	case joinLeft && joinRight:
		// The new interval bridges two existing ones.
		s.ends[idx-1] = s.ends[idx]
		s.starts = append(s.starts[:idx], s.starts[idx+1:]...)
		s.ends = append(s.ends[:idx], s.ends[idx+1:]...)
	case joinLeft:
		s.ends[idx-1] = end
	case joinRight:
		s.starts[idx] = start
	default:
		s.starts = append(s.starts, 0)
		copy(s.starts[idx+1:], s.starts[idx:])
		s.starts[idx] = start
		s.ends = append(s.ends, 0)
		copy(s.ends[idx+1:], s.ends[idx:])
		s.ends[idx] = end
	}
	return nil
}

func overlapError(number uint64, name string) error {
	if name != "" {
		return badFormat("Multiple definitions found for field %d (%s)", number, name)
	}
	return badFormat("Multiple definitions found for field %d", number)
}

// checkOverlap verifies that no two descriptors of one nesting level claim
// the same field number.
func checkOverlap(fields []*Field) error {
	var set intervalSet
	for _, f := range fields {
		start := uint64(f.Number)
		if err := set.insert(start, start+uint64(f.Repeat), f.Name); err != nil {
			return err
		}
	}
	return nil
}
