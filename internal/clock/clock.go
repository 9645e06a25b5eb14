// Package clock holds the pure time utilities the reminder pipeline is
// built on: clock-time parsing, daily-window containment and calendar
// day arithmetic. Everything here is deterministic given its inputs.
package clock

import (
	"fmt"
	"time"
)

// Clock abstracts "now" so the scheduler and tests can inject fixed
// instants.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a Clock pinned to a single instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// ParseHHMM converts a "HH:MM" string into its numeric HHMM encoding
// (09:30 -> 930, 19:05 -> 1905). The encoding compares correctly with
// plain integer ordering as long as both operands fall on the same day.
func ParseHHMM(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("clock: invalid time %q", v)
	}
	return t.Hour()*100 + t.Minute(), nil
}

// HHMM returns the numeric HHMM encoding of t's local clock time.
func HHMM(t time.Time) int {
	return t.Hour()*100 + t.Minute()
}

// WithinDailyWindow reports whether now's clock time falls inside the
// inclusive [start, end] window, at minute resolution. Windows crossing
// midnight (start > end) are unsupported and fail closed.
func WithinDailyWindow(now time.Time, start, end int) bool {
	if start > end {
		return false
	}
	cur := HHMM(now)
	return cur >= start && cur <= end
}

// SameCalendarDay reports whether a and b fall on the same calendar date
// when viewed in loc. Instant equality is irrelevant here.
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// AddDays shifts t by n calendar days, handling month and year rollover.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DateString renders t's calendar date in loc as "YYYY-MM-DD", the wire
// format used by the meeting collection.
func DateString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
