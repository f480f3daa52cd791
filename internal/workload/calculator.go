package workload

import "sort"

// Compute returns how busy the intervals make the window, as a whole
// percentage in [0, 100].
//
// Every interval is truncated to the window and converted to its minute set.
// A set that is a strict subset of another one is dropped. The remaining
// sets are summed without merging partial overlaps, so two bookings that
// overlap without nesting both count in full. Identical sets are both kept.
func Compute(intervals []Interval, w Window) int {
	if len(intervals) == 0 {
		return 0
	}

	sets := make([]MinuteSet, 0, len(intervals))
	for _, iv := range intervals {
		sets = append(sets, Truncate(iv, w).Minutes())
	}

	var busy int64
	for i, set := range sets {
		if dominated(i, set, sets) {
			continue
		}
		busy += set.Len()
	}

	if busy > WeekMinutes {
		busy = WeekMinutes
	}
	return int(float64(busy) / float64(WeekMinutes) * 100)
}

func dominated(index int, set MinuteSet, sets []MinuteSet) bool {
	for j, other := range sets {
		if j == index {
			continue
		}
		if set.StrictSubsetOf(other) {
			return true
		}
	}
	return false
}

// Load pairs an engineer login with a computed workload.
type Load struct {
	Login    string
	Workload int
}

// Rank orders loads from the least to the most busy. Equal workloads are
// ordered by login.
func Rank(loads []Load) []Load {
	ranked := make([]Load, len(loads))
	copy(ranked, loads)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Workload != ranked[j].Workload {
			return ranked[i].Workload < ranked[j].Workload
		}
		return ranked[i].Login < ranked[j].Login
	})
	return ranked
}
