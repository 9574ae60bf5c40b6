package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, a bare date and unix seconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// Session is the US equity trading session a moment falls in.
type Session string

const (
	SessionRegular    Session = "regular"
	SessionAfterHours Session = "after_hours"
	SessionWeekend    Session = "weekend"
)

// SessionAt classifies t in loc. Regular hours are 09:30-16:00 Monday to
// Friday; exchange holidays are treated as ordinary weekdays.
func SessionAt(t time.Time, loc *time.Location) Session {
	if loc != nil {
		t = t.In(loc)
	}
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return SessionWeekend
	}
	minutes := t.Hour()*60 + t.Minute()
	if minutes >= 9*60+30 && minutes < 16*60 {
		return SessionRegular
	}
	return SessionAfterHours
}

// NewYork loads America/New_York, falling back to a fixed -05:00 zone when
// tzdata is unavailable.
func NewYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}
