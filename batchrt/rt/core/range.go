package core

import "sort"

// Range is a half-open [Start, Start+Count) span of elements in a linear buffer.
type Range struct {
	Start int
	Count int
}

func (r Range) End() int {
	return r.Start + r.Count
}

// Coalesce turns a set of slot indices, each covering span elements, into the
// minimal sorted list of contiguous ranges. Duplicates are ignored.
func Coalesce(slots []int, span int) []Range {
	if len(slots) == 0 || span <= 0 {
		return nil
	}

	sorted := append([]int(nil), slots...)
	sort.Ints(sorted)

	ranges := make([]Range, 0, 4)
	cur := Range{Start: sorted[0] * span, Count: span}
	last := sorted[0]
	for _, s := range sorted[1:] {
		if s == last {
			continue
		}
		if s == last+1 {
			cur.Count += span
		} else {
			ranges = append(ranges, cur)
			cur = Range{Start: s * span, Count: span}
		}
		last = s
	}
	return append(ranges, cur)
}

// MergeRanges sorts ranges and joins the ones that overlap or touch.
func MergeRanges(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Count > 0 {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		tail := &out[len(out)-1]
		if r.Start <= tail.End() {
			if r.End() > tail.End() {
				tail.Count = r.End() - tail.Start
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
