package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestStartOfWeek(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{name: "monday maps to itself", input: time.Date(2024, time.March, 4, 13, 30, 0, 0, time.UTC), want: monday},
		{name: "wednesday maps to monday", input: time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC), want: monday},
		{name: "saturday maps to monday", input: time.Date(2024, time.March, 9, 23, 59, 59, 0, time.UTC), want: monday},
		{name: "sunday maps to previous monday", input: time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC), want: monday},
		{name: "crosses year boundary", input: time.Date(2024, time.January, 3, 8, 0, 0, 0, time.UTC), want: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{name: "sunday crossing year boundary", input: time.Date(2023, time.January, 1, 8, 0, 0, 0, time.UTC), want: time.Date(2022, time.December, 26, 0, 0, 0, 0, time.UTC)},
		{name: "non utc input uses utc date", input: time.Date(2024, time.March, 11, 1, 0, 0, 0, time.FixedZone("JST", 9*60*60)), want: monday},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := StartOfWeek(tc.input)
			if !got.Equal(tc.want) {
				t.Fatalf("StartOfWeek(%s) = %s, want %s", tc.input, got, tc.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("expected UTC location, got %s", got.Location())
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	t.Parallel()

	t.Run("crosses month boundary", func(t *testing.T) {
		got := AddDays(time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC), 1)
		want := time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
	})

	t.Run("handles leap day", func(t *testing.T) {
		got := AddDays(time.Date(2024, time.February, 28, 9, 0, 0, 0, time.UTC), 1)
		want := time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
	})

	t.Run("crosses year boundary backwards", func(t *testing.T) {
		got := AddDays(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), -1)
		want := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
	})
}

func TestSameCalendarDay(t *testing.T) {
	t.Parallel()

	a := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	if !SameCalendarDay(a, a.Add(23*time.Hour+59*time.Minute)) {
		t.Fatalf("expected same day")
	}
	if SameCalendarDay(a, a.Add(24*time.Hour)) {
		t.Fatalf("expected different days")
	}
	if SameCalendarDay(a, a.AddDate(1, 0, 0)) {
		t.Fatalf("expected different years to differ")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "explicit utc marker", input: "2024-03-04T09:00:00Z", want: want},
		{name: "missing designator treated as utc", input: "2024-03-04T09:00:00", want: want},
		{name: "missing designator with fraction", input: "2024-03-04T09:00:00.000", want: want},
		{name: "missing seconds", input: "2024-03-04T09:00", want: want},
		{name: "explicit offset converted to utc", input: "2024-03-04T18:00:00+09:00", want: want},
		{name: "date only is midnight", input: "2024-03-04", want: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)},
		{name: "surrounding whitespace", input: "  2024-03-04T09:00:00Z ", want: want},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimestamp(tc.input)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) returned error: %v", tc.input, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseTimestamp(%q) = %s, want %s", tc.input, got, tc.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("expected UTC location, got %s", got.Location())
			}
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()
		for _, input := range []string{"", "tomorrow", "2024-13-45T09:00:00Z"} {
			if _, err := ParseTimestamp(input); !errors.Is(err, ErrInvalidTimestamp) {
				t.Fatalf("ParseTimestamp(%q) error = %v, want ErrInvalidTimestamp", input, err)
			}
		}
	})
}

func TestAtHourAndAlignment(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, time.March, 4, 15, 42, 0, 0, time.UTC)
	if got := AtHour(day, 9); !got.Equal(time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("AtHour(9) = %s", got)
	}
	if got := AtHour(day, 24); !got.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("AtHour(24) = %s", got)
	}
	if !IsHourAligned(AtHour(day, 10)) {
		t.Fatalf("expected hour aligned")
	}
	if IsHourAligned(day) {
		t.Fatalf("expected 15:42 to be unaligned")
	}
}
