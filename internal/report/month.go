// Package report builds monthly work reports from bookings and saved rows.
package report

import "time"

// ReportDay is the first day of a month on which that month becomes the
// reporting month. Before it the previous month is still being reported.
const ReportDay = 15

// ReportingMonth returns the month an engineer reports on at now.
func ReportingMonth(now time.Time) (year, month int) {
	year, m, day := now.Date()
	if day >= ReportDay {
		return year, int(m)
	}
	if m == time.January {
		return year - 1, int(time.December)
	}
	return year, int(m) - 1
}

// MonthBounds returns 00:00 of the first day and 23:59 of the last day of
// the month, in UTC.
func MonthBounds(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := start.AddDate(0, 1, -1)
	end = time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 0, 0, time.UTC)
	return start, end
}

// ValidMonth reports whether month is in 1..12.
func ValidMonth(month int) bool {
	return month >= 1 && month <= 12
}
