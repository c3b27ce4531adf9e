package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddCalendarMonthsPreservesDayOfMonth(t *testing.T) {
	assert.Equal(t, date(2025, time.March, 15), AddCalendarMonths(date(2025, time.January, 15), 2))
	assert.Equal(t, date(2025, time.February, 15), AddCalendarMonths(date(2025, time.January, 15), 1))
	assert.Equal(t, date(2026, time.January, 15), AddCalendarMonths(date(2025, time.January, 15), 12))
}

func TestAddCalendarMonthsClampsToShorterMonth(t *testing.T) {
	// Non-leap year: Jan 31 + 1 month = Feb 28.
	assert.Equal(t, date(2025, time.February, 28), AddCalendarMonths(date(2025, time.January, 31), 1))
	// Leap year: Jan 31 + 1 month = Feb 29.
	assert.Equal(t, date(2024, time.February, 29), AddCalendarMonths(date(2024, time.January, 31), 1))
	// May 31 + 1 month = Jun 30.
	assert.Equal(t, date(2025, time.June, 30), AddCalendarMonths(date(2025, time.May, 31), 1))
	// Oct 31 + 4 months = Feb 28 (clamp only applies to the target month).
	assert.Equal(t, date(2026, time.February, 28), AddCalendarMonths(date(2025, time.October, 31), 4))
}

func TestAddCalendarMonthsNegative(t *testing.T) {
	assert.Equal(t, date(2025, time.January, 15), AddCalendarMonths(date(2025, time.March, 15), -2))
	assert.Equal(t, date(2024, time.November, 15), AddCalendarMonths(date(2025, time.January, 15), -2))
	assert.Equal(t, date(2024, time.December, 15), AddCalendarMonths(date(2025, time.December, 15), -12))
	// Mar 31 - 1 month clamps to Feb 28.
	assert.Equal(t, date(2025, time.February, 28), AddCalendarMonths(date(2025, time.March, 31), -1))
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 28, DaysIn(2025, time.February))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 31, DaysIn(2025, time.December))
	assert.Equal(t, 30, DaysIn(2025, time.April))
}

func TestDateOnly(t *testing.T) {
	at := time.Date(2025, time.January, 15, 18, 30, 12, 99, time.UTC)
	assert.Equal(t, date(2025, time.January, 15), DateOnly(at))
	assert.True(t, SameDate(at, date(2025, time.January, 15)))
	assert.False(t, SameDate(at, date(2025, time.January, 16)))
}
