package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tashkent(t *testing.T, instant time.Time) *Calendar {
	t.Helper()
	cal, err := NewCalendar(Fixed(instant), "Asia/Tashkent")
	require.NoError(t, err)
	return cal
}

func TestCalendarTodayUsesCivilTimezone(t *testing.T) {
	// 20:30 UTC is already the next day in Tashkent (UTC+5).
	cal := tashkent(t, time.Date(2025, 3, 9, 20, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), cal.Today())
	assert.Equal(t, 2025, cal.Year())
}

func TestCalendarDaysUntilIsSigned(t *testing.T) {
	cal := tashkent(t, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC))
	assert.Equal(t, 5, cal.DaysUntil(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, cal.DaysUntil(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -2, cal.DaysUntil(time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cal.IsPast(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.False(t, cal.IsFuture(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cal.IsFuture(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestCalendarEndOfDay(t *testing.T) {
	cal := tashkent(t, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC))
	end := cal.EndOfDay(cal.DaysFromToday(15))
	assert.Equal(t, 2025, end.Year())
	assert.Equal(t, time.March, end.Month())
	assert.Equal(t, 25, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, "Asia/Tashkent", end.Location().String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("15.12.2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-15", FormatDate(d))

	d, err = ParseDate("2025-12-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("31.02.2025")
	require.Error(t, err)
}

func TestNewCalendarRejectsUnknownZone(t *testing.T) {
	_, err := NewCalendar(System{}, "Mars/Olympus")
	require.Error(t, err)
}
