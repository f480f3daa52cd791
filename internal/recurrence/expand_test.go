package recurrence

import (
	"errors"
	"testing"
)

func TestExpand(t *testing.T) {
	t.Parallel()

	t.Run("percent booking repeated daily", func(t *testing.T) {
		t.Parallel()
		entries, err := Expand(Request{
			Type:    "perc",
			Percent: "80",
			Hours:   "6",
			Repeat:  "daily",
			Start:   "2018-10-10",
			End:     "2018-10-12",
			Company: "Company1",
			SLA:     "SLA1",
		})
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		want := [][2]string{
			{"2018-10-10T10:00", "2018-10-10T17:00"},
			{"2018-10-11T10:00", "2018-10-11T17:00"},
			{"2018-10-12T10:00", "2018-10-12T17:00"},
		}
		if len(entries) != len(want) {
			t.Fatalf("expected %d entries, got %d", len(want), len(entries))
		}
		for i, entry := range entries {
			if entry.StartString() != want[i][0] || entry.EndString() != want[i][1] {
				t.Fatalf("entry %d: expected %v, got %s..%s", i, want[i], entry.StartString(), entry.EndString())
			}
			if entry.Type != TypePercent || entry.Percent != 80 || entry.Hours != 6 {
				t.Fatalf("entry %d: unexpected attributes %+v", i, entry)
			}
			if entry.Repeat != RepeatDaily || entry.Company != "Company1" || entry.SLA != "SLA1" {
				t.Fatalf("entry %d: unexpected attributes %+v", i, entry)
			}
		}
	})

	t.Run("hour booking without repeat keeps the range", func(t *testing.T) {
		t.Parallel()
		entries, err := Expand(Request{
			Type:    "hours",
			Percent: "",
			Hours:   "6",
			Repeat:  "no",
			Start:   "2018-10-10T10:00",
			End:     "2018-10-12T16:00",
			Company: "Company1",
			SLA:     "SLA1",
		})
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected exactly one entry, got %d", len(entries))
		}
		if entries[0].StartString() != "2018-10-10T10:00" || entries[0].EndString() != "2018-10-12T16:00" {
			t.Fatalf("unexpected range %s..%s", entries[0].StartString(), entries[0].EndString())
		}
		if entries[0].Type != TypeHours || entries[0].Percent != 0 {
			t.Fatalf("unexpected attributes %+v", entries[0])
		}
	})

	t.Run("percent booking without repeat ends at the exact share", func(t *testing.T) {
		t.Parallel()
		entries, err := Expand(Request{Percent: "80", Repeat: "no", Start: "2018-10-10", End: "2018-10-10"})
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(entries) != 1 || entries[0].StartString() != "2018-10-10T10:00" || entries[0].EndString() != "2018-10-10T17:12" {
			t.Fatalf("unexpected entries %+v", entries)
		}
	})

	t.Run("full day percent booking", func(t *testing.T) {
		t.Parallel()
		entries, err := Expand(Request{Percent: "100", Repeat: "weekly", Start: "2018-10-01", End: "2018-10-15"})
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		for _, entry := range entries {
			if entry.Start.Hour() != 10 || entry.End.Hour() != 19 {
				t.Fatalf("unexpected range %s..%s", entry.StartString(), entry.EndString())
			}
		}
	})

	t.Run("empty expansion is not an error", func(t *testing.T) {
		t.Parallel()
		entries, err := Expand(Request{Repeat: "daily", Start: "2018-10-12T10:00", End: "2018-10-10T16:00"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Fatalf("expected an empty non-nil slice, got %#v", entries)
		}
	})

	t.Run("malformed dates are reported per field", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name  string
			req   Request
			field string
		}{
			{"date without time", Request{Repeat: "no", Start: "2018-10-10", End: "2018-10-12T16:00"}, "start_date"},
			{"garbage end", Request{Repeat: "daily", Start: "2018-10-10T10:00", End: "tomorrow"}, "end_date"},
			{"time on percent booking", Request{Percent: "50", Repeat: "no", Start: "2018-10-10T10:00", End: "2018-10-10"}, "start_date"},
		}
		for _, tc := range cases {
			_, err := Expand(tc.req)
			if !errors.Is(err, ErrMalformedDate) {
				t.Fatalf("%s: expected ErrMalformedDate, got %v", tc.name, err)
			}
			var dateErr *DateError
			if !errors.As(err, &dateErr) || dateErr.Field != tc.field {
				t.Fatalf("%s: expected DateError for %s, got %v", tc.name, tc.field, err)
			}
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name string
			req  Request
			want error
		}{
			{"repeat", Request{Repeat: "yearly", Start: "2018-10-10T10:00", End: "2018-10-10T12:00"}, ErrInvalidRepeat},
			{"zero percent", Request{Percent: "0", Repeat: "no", Start: "2018-10-10", End: "2018-10-10"}, ErrInvalidPercent},
			{"percent over 100", Request{Percent: "150", Repeat: "no", Start: "2018-10-10", End: "2018-10-10"}, ErrInvalidPercent},
			{"non numeric percent", Request{Percent: "half", Repeat: "no", Start: "2018-10-10", End: "2018-10-10"}, ErrInvalidPercent},
			{"negative hours", Request{Hours: "-1", Repeat: "no", Start: "2018-10-10T10:00", End: "2018-10-10T12:00"}, ErrInvalidHours},
			{"type", Request{Type: "days", Repeat: "no", Start: "2018-10-10T10:00", End: "2018-10-10T12:00"}, ErrInvalidType},
		}
		for _, tc := range cases {
			if _, err := Expand(tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
			}
		}
	})
}
