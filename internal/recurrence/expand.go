package recurrence

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// BookingType tells how the booked time was specified.
type BookingType string

const (
	// TypeHours bookings carry explicit clock times.
	TypeHours BookingType = "hours"
	// TypePercent bookings are a share of a workday.
	TypePercent BookingType = "percent"
)

// Percent bookings are laid over a nine hour workday starting at 10:00.
const (
	workdayStart = 10 * time.Hour
	workdayHours = 9
)

var (
	// ErrMalformedDate indicates a start or end value does not match the expected layout.
	ErrMalformedDate = errors.New("recurrence: malformed date")
	// ErrInvalidPercent indicates the percent value is not an integer between 1 and 100.
	ErrInvalidPercent = errors.New("recurrence: percent must be an integer between 1 and 100")
	// ErrInvalidHours indicates the hours value is not a non-negative integer.
	ErrInvalidHours = errors.New("recurrence: hours must be a non-negative integer")
	// ErrInvalidType indicates the booking type is not recognised.
	ErrInvalidType = errors.New("recurrence: invalid booking type")
)

// DateError describes a date value that could not be parsed.
type DateError struct {
	Field  string
	Value  string
	Layout string
	Err    error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("recurrence: %s %q does not match %s", e.Field, e.Value, e.Layout)
}

// Unwrap exposes both ErrMalformedDate and the underlying parse error.
func (e *DateError) Unwrap() []error {
	return []error{ErrMalformedDate, e.Err}
}

// Request is one booking submission as entered by a user.
type Request struct {
	Type    string
	Percent string
	Hours   string
	Repeat  string
	Start   string
	End     string
	Company string
	SLA     string
}

// Entry is one concrete booking produced from a Request.
type Entry struct {
	Type BookingType
	// Percent is zero for hour based bookings.
	Percent int
	// Hours is zero when not given.
	Hours   int
	Repeat  Repeat
	Start   time.Time
	End     time.Time
	Company string
	SLA     string
}

// StartString formats the entry start as MinuteLayout.
func (e Entry) StartString() string { return e.Start.Format(MinuteLayout) }

// EndString formats the entry end as MinuteLayout.
func (e Entry) EndString() string { return e.End.Format(MinuteLayout) }

// Expand converts a booking submission into the entries to persist.
//
// With an empty percent both dates carry clock times. With a percent both are
// plain dates: the entry starts at 10:00 of the start date and ends at
// 10:00 plus the percent share of nine hours on the end date. A request that
// does not repeat yields exactly one entry. A repeating request yields one
// entry per Daterange pair, possibly none, which is not an error.
func Expand(req Request) ([]Entry, error) {
	repeat, err := ParseRepeat(req.Repeat)
	if err != nil {
		return nil, err
	}

	percent, err := parsePercent(req.Percent)
	if err != nil {
		return nil, err
	}

	hours, err := parseHours(req.Hours)
	if err != nil {
		return nil, err
	}

	bookingType, err := resolveType(req.Type, percent)
	if err != nil {
		return nil, err
	}

	start, end, err := resolveBounds(req.Start, req.End, percent)
	if err != nil {
		return nil, err
	}

	template := Entry{
		Type:    bookingType,
		Percent: percent,
		Hours:   hours,
		Repeat:  repeat,
		Company: req.Company,
		SLA:     req.SLA,
	}

	if repeat == RepeatNo {
		entry := template
		entry.Start = truncateMinute(start)
		entry.End = truncateMinute(end)
		return []Entry{entry}, nil
	}

	entries := make([]Entry, 0)
	for dayStart, dayEnd := range Daterange(start, end, repeat) {
		entry := template
		entry.Start = truncateMinute(dayStart)
		entry.End = truncateMinute(dayEnd)
		entries = append(entries, entry)
	}
	return entries, nil
}

func resolveBounds(rawStart, rawEnd string, percent int) (time.Time, time.Time, error) {
	if percent == 0 {
		start, err := parseDate("start_date", rawStart, MinuteLayout)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := parseDate("end_date", rawEnd, MinuteLayout)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}

	startDay, err := parseDate("start_date", rawStart, DateLayout)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDay, err := parseDate("end_date", rawEnd, DateLayout)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startDay.Add(workdayStart), endDay.Add(percentOffset(percent)), nil
}

// percentOffset is the end of a percent booking measured from midnight,
// rounded to the microsecond.
func percentOffset(percent int) time.Duration {
	hours := workdayHours*(float64(percent)/100) + workdayStart.Hours()
	micros := math.Round(hours * float64(time.Hour/time.Microsecond))
	return time.Duration(micros) * time.Microsecond
}

func parseDate(field, value, layout string) (time.Time, error) {
	ts, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &DateError{Field: field, Value: value, Layout: layout, Err: err}
	}
	return ts, nil
}

func parsePercent(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	percent, err := strconv.Atoi(value)
	if err != nil || percent < 1 || percent > 100 {
		return 0, ErrInvalidPercent
	}
	return percent, nil
}

func parseHours(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	hours, err := strconv.Atoi(value)
	if err != nil || hours < 0 {
		return 0, ErrInvalidHours
	}
	return hours, nil
}

func resolveType(value string, percent int) (BookingType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(TypeHours), string(TypePercent), "perc":
	default:
		return "", ErrInvalidType
	}
	if percent > 0 {
		return TypePercent, nil
	}
	return TypeHours, nil
}

func truncateMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
