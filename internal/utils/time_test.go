package utils

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	in := time.Date(2024, 3, 15, 17, 45, 12, 999, loc)

	got := StartOfDay(in)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("StartOfDay() location = %v, want %v", got.Location(), loc)
	}
}

func TestEndOfDay(t *testing.T) {
	in := time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC)
	got := EndOfDay(in)

	if got.Day() != 31 || got.Hour() != 23 || got.Minute() != 59 || got.Second() != 59 {
		t.Errorf("EndOfDay() = %v, want 2024-12-31 23:59:59.999999999", got)
	}
	if !got.Add(time.Nanosecond).Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("EndOfDay() + 1ns should be the next midnight, got %v", got.Add(time.Nanosecond))
	}
}

func TestDifferenceInDays(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		later   time.Time
		earlier time.Time
		want    int
	}{
		{"same instant", base, base, 0},
		{"exactly one day", base.Add(24 * time.Hour), base, 1},
		{"just under one day", base.Add(24*time.Hour - time.Millisecond), base, 0},
		{"three days", base.AddDate(0, 0, 3), base, 3},
		{"negative whole day", base, base.Add(24 * time.Hour), -1},
		{"negative partial day floors", base, base.Add(time.Hour), -1},
		{"sub-millisecond ignored", base.Add(24*time.Hour + 999*time.Microsecond), base, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DifferenceInDays(tt.later, tt.earlier); got != tt.want {
				t.Errorf("DifferenceInDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDifferenceInDays_DST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// 2024-03-10 is 23 hours long in New York.
	sat := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	sun := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	mon := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)

	if got := DifferenceInDays(sun, sat); got != 1 {
		t.Errorf("DifferenceInDays(sun, sat) = %d, want 1", got)
	}
	if got := DifferenceInDays(mon, sun); got != 0 {
		t.Errorf("DifferenceInDays(mon, sun) = %d, want 0 (23h day floors)", got)
	}
	if got := DifferenceInDays(mon, sat); got != 1 {
		t.Errorf("DifferenceInDays(mon, sat) = %d, want 1 (47h floors)", got)
	}

	// 2024-11-03 is 25 hours long.
	fallSun := time.Date(2024, 11, 3, 0, 0, 0, 0, loc)
	fallMon := time.Date(2024, 11, 4, 0, 0, 0, 0, loc)
	if got := DifferenceInDays(fallMon, fallSun); got != 1 {
		t.Errorf("DifferenceInDays across fall-back = %d, want 1", got)
	}
}

func TestParseCompactDate(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
		want   time.Time
	}{
		{"24-01-15", true, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"00-12-31", true, time.Date(2000, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"24-02-29", true, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"23-02-29", false, time.Time{}},
		{"24-02-30", false, time.Time{}},
		{"24-13-01", false, time.Time{}},
		{"24-00-10", false, time.Time{}},
		{"24-04-00", false, time.Time{}},
		{"24-04", false, time.Time{}},
		{"2024-04-01-", false, time.Time{}},
		{"aa-bb-cc", false, time.Time{}},
		{"", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCompactDateIn(tt.input, time.UTC)
			if ok != tt.wantOK {
				t.Fatalf("ParseCompactDateIn(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseCompactDateIn(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompactDateRoundTrip(t *testing.T) {
	d := time.Date(2031, 7, 4, 0, 0, 0, 0, time.UTC)
	s := FormatCompactDate(d)
	if s != "31-07-04" {
		t.Fatalf("FormatCompactDate() = %q, want %q", s, "31-07-04")
	}
	got, ok := ParseCompactDateIn(s, time.UTC)
	if !ok || !got.Equal(d) {
		t.Errorf("round trip = %v (ok=%v), want %v", got, ok, d)
	}
}

func TestHabitDay(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"just before cutoff", time.Date(2024, 1, 2, 3, 59, 59, 0, time.UTC), "2024-01-01"},
		{"at cutoff", time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC), "2024-01-02"},
		{"midnight", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "2024-01-01"},
		{"late evening", time.Date(2024, 1, 2, 23, 30, 0, 0, time.UTC), "2024-01-02"},
		{"new year rollover", time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), "2023-12-31"},
		{"march first in leap year", time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC), "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HabitDay(tt.in)
			if key := FormatDateKey(got); key != tt.want {
				t.Errorf("HabitDay(%v) = %s, want %s", tt.in, key, tt.want)
			}
			if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
				t.Errorf("HabitDay(%v) = %v, want a normalized day start", tt.in, got)
			}
		})
	}
}

func TestHabitDayWithCutoff(t *testing.T) {
	in := time.Date(2024, 6, 10, 5, 30, 0, 0, time.UTC)
	if got := HabitDayKey(in, 6); got != "2024-06-09" {
		t.Errorf("HabitDayKey(05:30, 6) = %s, want 2024-06-09", got)
	}
	if got := HabitDayKey(in, 0); got != "2024-06-10" {
		t.Errorf("HabitDayKey(05:30, 0) = %s, want 2024-06-10", got)
	}
}

func TestFormatDateKey(t *testing.T) {
	in := time.Date(2024, 2, 5, 13, 0, 0, 0, time.UTC)
	if got := FormatDateKey(in); got != "2024-02-05" {
		t.Errorf("FormatDateKey() = %q, want %q", got, "2024-02-05")
	}
}

func TestDateKeysOrderChronologically(t *testing.T) {
	days := []time.Time{
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 1; i < len(days); i++ {
		prev, cur := FormatDateKey(days[i-1]), FormatDateKey(days[i])
		if !(prev < cur) {
			t.Errorf("expected %s < %s lexicographically", prev, cur)
		}
	}
}

func TestLoadLocation(t *testing.T) {
	for _, tz := range []string{"", "Local"} {
		loc, err := LoadLocation(tz)
		if err != nil || loc != time.Local {
			t.Errorf("LoadLocation(%q) = %v, %v; want time.Local", tz, loc, err)
		}
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("LoadLocation(invalid) expected error")
	}
	if ValidateTimezone("Not/AZone") {
		t.Error("ValidateTimezone(invalid) = true, want false")
	}
}
