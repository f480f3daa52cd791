package recurrence

import (
	"testing"
	"time"
)

func mustMinute(t testing.TB, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(MinuteLayout, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func collect(d1, d2 time.Time, repeat Repeat) [][2]string {
	var pairs [][2]string
	for start, end := range DaterangeStrings(d1, d2, repeat) {
		pairs = append(pairs, [2]string{start, end})
	}
	return pairs
}

func assertPairs(t *testing.T, got, want [][2]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d pairs, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pair %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDaterange(t *testing.T) {
	t.Parallel()

	t.Run("daily", func(t *testing.T) {
		t.Parallel()
		got := collect(mustMinute(t, "2018-10-10T10:00"), mustMinute(t, "2018-10-12T16:00"), RepeatDaily)
		assertPairs(t, got, [][2]string{
			{"2018-10-10T10:00", "2018-10-10T16:00"},
			{"2018-10-11T10:00", "2018-10-11T16:00"},
			{"2018-10-12T10:00", "2018-10-12T16:00"},
		})
	})

	t.Run("weekly", func(t *testing.T) {
		t.Parallel()
		got := collect(mustMinute(t, "2018-10-10T10:00"), mustMinute(t, "2018-10-24T16:00"), RepeatWeekly)
		assertPairs(t, got, [][2]string{
			{"2018-10-10T10:00", "2018-10-10T16:00"},
			{"2018-10-17T10:00", "2018-10-17T16:00"},
			{"2018-10-24T10:00", "2018-10-24T16:00"},
		})
	})

	t.Run("monthly steps by the length of each month", func(t *testing.T) {
		t.Parallel()
		got := collect(mustMinute(t, "2018-10-10T10:00"), mustMinute(t, "2018-12-10T16:00"), RepeatMonthly)
		assertPairs(t, got, [][2]string{
			{"2018-10-10T10:00", "2018-10-10T16:00"},
			{"2018-11-10T10:00", "2018-11-10T16:00"},
			{"2018-12-10T10:00", "2018-12-10T16:00"},
		})
	})

	t.Run("monthly across february", func(t *testing.T) {
		t.Parallel()
		// January has 31 days and February 2020 has 29.
		got := collect(mustMinute(t, "2020-01-31T09:00"), mustMinute(t, "2020-04-30T18:00"), RepeatMonthly)
		assertPairs(t, got, [][2]string{
			{"2020-01-31T09:00", "2020-01-31T18:00"},
			{"2020-03-02T09:00", "2020-03-02T18:00"},
			{"2020-04-02T09:00", "2020-04-02T18:00"},
		})
	})

	t.Run("span keeps whole hours only", func(t *testing.T) {
		t.Parallel()
		got := collect(mustMinute(t, "2018-10-10T10:30"), mustMinute(t, "2018-10-11T16:45"), RepeatDaily)
		assertPairs(t, got, [][2]string{
			{"2018-10-10T10:30", "2018-10-10T16:30"},
			{"2018-10-11T10:30", "2018-10-11T16:30"},
		})
	})

	t.Run("end not after start is empty", func(t *testing.T) {
		t.Parallel()
		ts := mustMinute(t, "2018-10-10T10:00")
		if got := collect(ts, ts, RepeatDaily); len(got) != 0 {
			t.Fatalf("expected no pairs, got %v", got)
		}
		if got := collect(ts, ts.Add(-time.Hour), RepeatDaily); len(got) != 0 {
			t.Fatalf("expected no pairs, got %v", got)
		}
	})

	t.Run("non repeating policy is empty", func(t *testing.T) {
		t.Parallel()
		got := collect(mustMinute(t, "2018-10-10T10:00"), mustMinute(t, "2018-10-12T16:00"), RepeatNo)
		if len(got) != 0 {
			t.Fatalf("expected no pairs, got %v", got)
		}
		got = collect(mustMinute(t, "2018-10-10T10:00"), mustMinute(t, "2018-10-12T16:00"), Repeat("yearly"))
		if len(got) != 0 {
			t.Fatalf("expected no pairs for unknown policy, got %v", got)
		}
	})

	t.Run("sequence restarts on every range", func(t *testing.T) {
		t.Parallel()
		seq := Daterange(mustMinute(t, "2018-10-10T10:00"), mustMinute(t, "2018-10-12T16:00"), RepeatDaily)
		count := func() int {
			n := 0
			for range seq {
				n++
			}
			return n
		}
		if first, second := count(), count(); first != 3 || second != 3 {
			t.Fatalf("expected 3 pairs on each pass, got %d and %d", first, second)
		}
	})

	t.Run("stops when the consumer breaks", func(t *testing.T) {
		t.Parallel()
		n := 0
		for range Daterange(mustMinute(t, "2018-01-01T10:00"), mustMinute(t, "2019-01-01T16:00"), RepeatDaily) {
			n++
			if n == 2 {
				break
			}
		}
		if n != 2 {
			t.Fatalf("expected to stop after 2 pairs, got %d", n)
		}
	})
}

func TestParseRepeat(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"no", "daily", "Weekly", " monthly "} {
		if _, err := ParseRepeat(value); err != nil {
			t.Fatalf("ParseRepeat(%q) returned error: %v", value, err)
		}
	}
	if _, err := ParseRepeat("yearly"); err != ErrInvalidRepeat {
		t.Fatalf("expected ErrInvalidRepeat, got %v", err)
	}
}

func BenchmarkDaterangeDaily(b *testing.B) {
	d1 := mustMinute(b, "2018-01-01T10:00")
	d2 := mustMinute(b, "2018-12-31T18:00")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		for range Daterange(d1, d2, RepeatDaily) {
			n++
		}
		if n != 365 {
			b.Fatalf("expected 365 pairs, got %d", n)
		}
	}
}
