package scheduling

import "sort"

// interval is a half-open [start, end) busy window on a resource's timeline.
type interval struct {
	start, end int
}

// timeline tracks a single resource's (machine or operator) busy intervals
// in sorted, non-overlapping order.
type timeline struct {
	busy []interval
}

// earliestFit finds the smallest start >= after such that [start, start+length)
// does not overlap any busy interval.
func (t *timeline) earliestFit(after, length int) int {
	candidates := make([]int, 0, len(t.busy)+1)
	candidates = append(candidates, after)
	for _, iv := range t.busy {
		if iv.end >= after {
			candidates = append(candidates, iv.end)
		}
	}
	sort.Ints(candidates)

	for _, c := range candidates {
		if t.fits(c, length) {
			return c
		}
	}
	// Should be unreachable: the last candidate is always past every busy
	// interval, so it always fits.
	last := after
	if len(t.busy) > 0 {
		last = t.busy[len(t.busy)-1].end
	}
	if last < after {
		last = after
	}
	return last
}

func (t *timeline) fits(start, length int) bool {
	end := start + length
	for _, iv := range t.busy {
		if start < iv.end && iv.start < end {
			return false
		}
	}
	return true
}

func (t *timeline) insert(start, end int) {
	idx := sort.Search(len(t.busy), func(i int) bool { return t.busy[i].start >= start })
	t.busy = append(t.busy, interval{})
	copy(t.busy[idx+1:], t.busy[idx:])
	t.busy[idx] = interval{start: start, end: end}
}

// earliestFitBoth finds the smallest start >= after that fits length in
// both timelines simultaneously.
func earliestFitBoth(a, b *timeline, after, length int) int {
	candidates := make([]int, 0, len(a.busy)+len(b.busy)+1)
	candidates = append(candidates, after)
	for _, iv := range a.busy {
		if iv.end >= after {
			candidates = append(candidates, iv.end)
		}
	}
	for _, iv := range b.busy {
		if iv.end >= after {
			candidates = append(candidates, iv.end)
		}
	}
	sort.Ints(candidates)

	for _, c := range candidates {
		if a.fits(c, length) && b.fits(c, length) {
			return c
		}
	}
	return after
}
