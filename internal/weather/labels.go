package weather

import "time"

const (
	hourLayout  = "03 PM"
	shortLayout = "Mon 2"
	fullLayout  = "Mon, Jan 2, 03:04 PM"
	dayLayout   = "2006-01-02"
)

// HourLabel formats t as a two-digit 12-hour clock, e.g. "03 PM".
func HourLabel(t time.Time) string { return t.Format(hourLayout) }

// ShortLabel formats t as weekday and day of month, e.g. "Mon 2".
func ShortLabel(t time.Time) string { return t.Format(shortLayout) }

// FullLabel formats t for tooltips, e.g. "Mon, Jan 2, 03:00 PM".
func FullLabel(t time.Time) string { return t.Format(fullLayout) }

// ParseDay parses a YYYY-MM-DD date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dayLayout, s, loc)
}

// DayKey formats t's date as YYYY-MM-DD.
func DayKey(t time.Time) string { return t.Format(dayLayout) }
