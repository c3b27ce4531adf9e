// Package dateutil implements calendar-date arithmetic for billing periods.
package dateutil

import "time"

// AddCalendarMonths adds n calendar months to t, preserving the day of month
// and clamping to the last day when the target month is shorter
// (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap year). This differs from
// time.Time.AddDate, which normalizes overflow into the next month.
func AddCalendarMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	total := int(month) - 1 + n
	targetYear := year + total/12
	targetMonth := time.Month(total%12 + 1)
	if total < 0 {
		// Go integer division truncates toward zero; fix up negative wrap.
		if total%12 != 0 {
			targetYear--
			targetMonth = time.Month(total%12 + 13)
		}
	}

	if max := DaysIn(targetYear, targetMonth); day > max {
		day = max
	}

	return time.Date(targetYear, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOnly truncates t to UTC midnight.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar day in UTC.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
