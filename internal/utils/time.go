package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/nudge/internal/constants"
)

// StartOfDay returns t with its time-of-day zeroed in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
	return next.Add(-time.Nanosecond)
}

// DifferenceInDays returns the number of whole 24-hour periods between two
// instants, floored. It works on epoch milliseconds rather than calendar
// fields, so a DST transition between the two instants can shift the result
// by one when the inputs are not both day-normalized in the same zone.
func DifferenceInDays(later, earlier time.Time) int {
	diff := later.UnixMilli() - earlier.UnixMilli()
	return int(floorDiv(diff, constants.MillisPerDay))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ParseCompactDate parses a YY-MM-DD date in the local timezone.
// See ParseCompactDateIn.
func ParseCompactDate(s string) (time.Time, bool) {
	return ParseCompactDateIn(s, time.Local)
}

// ParseCompactDateIn parses a YY-MM-DD date at midnight in loc. The year is
// read as 2000+YY. It reports false for malformed input and for dates that do
// not exist on the calendar (e.g. 24-02-30).
func ParseCompactDateIn(s string, loc *time.Location) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	fields := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return time.Time{}, false
		}
		fields[i] = n
	}

	year := 2000 + fields[0]
	month := time.Month(fields[1])
	day := fields[2]
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow; a rollover means the date was invalid.
	if date.Month() != month || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// FormatCompactDate formats t as YY-MM-DD.
func FormatCompactDate(t time.Time) string {
	return t.Format(constants.CompactDateFormat)
}

// HabitDay returns the logical scheduling day for t using the default 4am cutoff.
func HabitDay(t time.Time) time.Time {
	return HabitDayWithCutoff(t, constants.HabitDayCutoffHour)
}

// HabitDayWithCutoff returns the start of the logical day containing t. Before
// cutoffHour the logical day is the previous calendar day.
func HabitDayWithCutoff(t time.Time, cutoffHour int) time.Time {
	if t.Hour() < cutoffHour {
		return time.Date(t.Year(), t.Month(), t.Day()-1, 0, 0, 0, 0, t.Location())
	}
	return StartOfDay(t)
}

// FormatDateKey formats t as a zero-padded YYYY-MM-DD key using t's calendar fields.
func FormatDateKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// HabitDayKey is FormatDateKey(HabitDayWithCutoff(t, cutoffHour)).
func HabitDayKey(t time.Time, cutoffHour int) string {
	return FormatDateKey(HabitDayWithCutoff(t, cutoffHour))
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	// Return the date at midnight in the specified timezone
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
