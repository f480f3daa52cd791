package report

import "sort"

// Policy holds the configured monthly hour limits and premade categories.
type Policy struct {
	HourLimits        [12]int
	PremadeCategories []string
}

// HourLimit returns the limit for month (1..12), or 0 for other values.
func (p Policy) HourLimit(month int) int {
	if !ValidMonth(month) {
		return 0
	}
	return p.HourLimits[month-1]
}

// PremadeEntries returns the premade categories not already used as a
// company in lines, sorted and without duplicates.
func (p Policy) PremadeEntries(lines []Line) []string {
	used := make(map[string]bool, len(lines))
	for _, line := range lines {
		used[line.Company] = true
	}

	out := make([]string, 0, len(p.PremadeCategories))
	for _, category := range p.PremadeCategories {
		if used[category] {
			continue
		}
		used[category] = true
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
