package workload

import "time"

// Interval is a booked time range. Start is inclusive and End exclusive.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Window is the reference frame workload is measured against.
type Window struct {
	Start time.Time
	End   time.Time
}

// WeekMinutes is the size of the reference week in minutes.
const WeekMinutes = 7 * 24 * 60

// Week is the length of the reference window.
const Week = 7 * 24 * time.Hour

// WeekFrom returns the window now .. now+7d.
func WeekFrom(now time.Time) Window {
	return Window{Start: now, End: now.Add(Week)}
}

// MinuteOf returns the minute index of t counted from the unix epoch.
func MinuteOf(t time.Time) int64 {
	return t.Unix() / 60
}

// MinuteSet is the set of whole minutes covered by an interval.
//
// An interval always covers a contiguous run of minutes, so the set is kept
// as its bounds [first, last). Bounds with last <= first describe the empty set.
type MinuteSet struct {
	first int64
	last  int64
}

// NewMinuteSet returns the set of minutes in [first, last).
func NewMinuteSet(first, last int64) MinuteSet {
	return MinuteSet{first: first, last: last}
}

// Minutes maps the interval to the minutes it covers.
func (iv Interval) Minutes() MinuteSet {
	return MinuteSet{first: MinuteOf(iv.Start), last: MinuteOf(iv.End)}
}

// Len reports the number of minutes in the set.
func (s MinuteSet) Len() int64 {
	if s.last <= s.first {
		return 0
	}
	return s.last - s.first
}

// Empty reports whether the set has no minutes.
func (s MinuteSet) Empty() bool {
	return s.Len() == 0
}

// Contains reports whether minute m is in the set.
func (s MinuteSet) Contains(m int64) bool {
	return m >= s.first && m < s.last
}

// Bounds returns the first minute and the minute after the last one.
// Both are zero for the empty set.
func (s MinuteSet) Bounds() (first, last int64) {
	if s.Empty() {
		return 0, 0
	}
	return s.first, s.last
}

// SubsetOf reports whether every minute of s is also in o.
func (s MinuteSet) SubsetOf(o MinuteSet) bool {
	if s.Empty() {
		return true
	}
	if o.Empty() {
		return false
	}
	return o.first <= s.first && s.last <= o.last
}

// StrictSubsetOf reports whether s is a subset of o and o has at least one
// minute that s does not.
func (s MinuteSet) StrictSubsetOf(o MinuteSet) bool {
	return s.SubsetOf(o) && s.Len() < o.Len()
}

// Truncate clips iv to the window.
//
// An interval ending before the window gets the window start as its start
// and keeps its end, and an interval starting after the window keeps its
// start and gets the window end. Both results are empty minute sets.
// Anything else is returned unchanged.
func Truncate(iv Interval, w Window) Interval {
	switch {
	case iv.End.Before(w.Start):
		return Interval{Start: w.Start, End: iv.End}
	case iv.Start.After(w.End):
		return Interval{Start: iv.Start, End: w.End}
	default:
		return Interval{Start: iv.Start, End: iv.End}
	}
}

// OpenEnd is the end bound used when a range query has no upper limit.
const OpenEnd int64 = 10000000000000

// MatchesRange reports whether a booking spanning [start, end] in unix seconds
// is selected by a range query for [from, to].
//
// The predicate is the one every booking store applies:
//
//	(s >= F AND e <= T) OR (s < F AND e >= F AND e < T) OR
//	(e > T AND s > F AND s <= T) OR (s < F AND e > T)
func MatchesRange(start, end, from, to int64) bool {
	return (start >= from && end <= to) ||
		(start < from && end >= from && end < to) ||
		(end > to && start > from && start <= to) ||
		(start < from && end > to)
}

// ResolveRange turns query bounds into the range given to MatchesRange.
// A zero start is the distant past and a zero end is OpenEnd. When both are
// zero the range is the week that starts at now.
func ResolveRange(start, end int64, now time.Time) (from, to int64) {
	if start == 0 && end == 0 {
		w := WeekFrom(now)
		return w.Start.Unix(), w.End.Unix()
	}
	from, to = start, end
	if end == 0 {
		to = OpenEnd
	}
	return from, to
}
