// Package clock supplies "now" in a fixed civil timezone and the day arithmetic
// that deadline handling depends on.
//
// Civil dates are represented as time.Time values at midnight UTC carrying the
// civil year, month and day. That is also how lib/pq scans DATE columns, so
// values read from the store compare directly with values produced here.
package clock

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical wire format of a civil date.
const DateLayout = "2006-01-02"

// dottedLayout is the day-first format reviewers type in chat clients.
const dottedLayout = "02.01.2006"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time { return time.Now() }

// Func adapts a plain function into a Clock.
type Func func() time.Time

// Now implements Clock.
func (f Func) Now() time.Time { return f() }

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}

// Calendar answers civil-date questions in one location.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

// NewCalendar loads the timezone and binds it to the clock.
func NewCalendar(c Clock, timezone string) (*Calendar, error) {
	if c == nil {
		c = System{}
	}
	if strings.TrimSpace(timezone) == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Calendar{clock: c, loc: loc}, nil
}

// NewCalendarIn binds an already resolved location.
func NewCalendarIn(c Clock, loc *time.Location) *Calendar {
	if c == nil {
		c = System{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{clock: c, loc: loc}
}

// Location returns the civil timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current instant expressed in the civil timezone.
func (c *Calendar) Now() time.Time { return c.clock.Now().In(c.loc) }

// Today returns the current civil date.
func (c *Calendar) Today() time.Time { return DateOf(c.Now()) }

// Year returns the current civil year.
func (c *Calendar) Year() int { return c.Now().Year() }

// DateIn converts an instant to its civil date in the calendar's timezone.
func (c *Calendar) DateIn(t time.Time) time.Time { return DateOf(t.In(c.loc)) }

// DaysFromToday returns the civil date n days after today.
func (c *Calendar) DaysFromToday(n int) time.Time { return c.Today().AddDate(0, 0, n) }

// EndOfDay returns the last instant of the civil date in the calendar's timezone.
func (c *Calendar) EndOfDay(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), c.loc)
}

// DaysUntil is the signed number of civil days from today to date.
// Negative values mean date is already in the past.
func (c *Calendar) DaysUntil(date time.Time) int { return DaysBetween(c.Today(), date) }

// IsPast reports whether date is strictly before today.
func (c *Calendar) IsPast(date time.Time) bool { return DateOf(date).Before(c.Today()) }

// IsFuture reports whether date is strictly after today.
func (c *Calendar) IsFuture(date time.Time) bool { return DateOf(date).After(c.Today()) }

// DateOf truncates t to its civil date using t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween is the signed civil-day difference to - from.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)) / (24 * time.Hour))
}

// ParseDate accepts YYYY-MM-DD and DD.MM.YYYY.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DateLayout, dottedLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or DD.MM.YYYY", raw)
}

// FormatDate renders a civil date in DateLayout.
func FormatDate(date time.Time) string {
	return DateOf(date).Format(DateLayout)
}
