package recurrence

import (
	"errors"
	"iter"
	"strings"
	"time"
)

// Layouts accepted in booking submissions and used for generated entries.
const (
	MinuteLayout = "2006-01-02T15:04"
	DateLayout   = "2006-01-02"
)

// Repeat is the policy used to expand one booking into several entries.
type Repeat string

const (
	RepeatNo      Repeat = "no"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// ErrInvalidRepeat indicates the repeat policy is not supported.
var ErrInvalidRepeat = errors.New("recurrence: invalid repeat policy")

// ParseRepeat validates a repeat policy string.
func ParseRepeat(value string) (Repeat, error) {
	r := Repeat(strings.ToLower(strings.TrimSpace(value)))
	switch r {
	case RepeatNo, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return r, nil
	}
	return "", ErrInvalidRepeat
}

// step returns the number of days between two consecutive entries starting
// at from. Zero means the policy does not repeat.
func (r Repeat) step(from time.Time) int {
	switch r {
	case RepeatDaily:
		return 1
	case RepeatWeekly:
		return 7
	case RepeatMonthly:
		return daysIn(from.Year(), from.Month())
	}
	return 0
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Daterange yields the (start, end) pairs a repeating booking covers between
// d1 and d2.
//
// Every pair spans as many whole hours as the clock hours of d2 and d1 differ,
// so minutes of the span are dropped. Pairs are produced while the end of the
// pair does not pass d2. The sequence is empty when d2 is not after d1 or the
// policy does not repeat. Each range over the returned sequence starts over.
func Daterange(d1, d2 time.Time, repeat Repeat) iter.Seq2[time.Time, time.Time] {
	return func(yield func(time.Time, time.Time) bool) {
		if !d2.After(d1) || repeat.step(d1) == 0 {
			return
		}

		span := time.Duration(d2.Hour()-d1.Hour()) * time.Hour
		dayStart := d1
		dayEnd := d1.Add(span)

		for !dayEnd.After(d2) {
			if !yield(dayStart, dayEnd) {
				return
			}
			offset := time.Duration(repeat.step(dayStart)) * 24 * time.Hour
			dayStart = dayStart.Add(offset)
			dayEnd = dayEnd.Add(offset)
		}
	}
}

// DaterangeStrings is Daterange with both bounds formatted as MinuteLayout.
func DaterangeStrings(d1, d2 time.Time, repeat Repeat) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for start, end := range Daterange(d1, d2, repeat) {
			if !yield(start.Format(MinuteLayout), end.Format(MinuteLayout)) {
				return
			}
		}
	}
}
