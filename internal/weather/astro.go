package weather

import (
	"math"
	"time"
)

// IsDaytime reports whether dt lies in [sunrise, sunset). Missing values are
// treated as daytime.
func IsDaytime(dt, sunrise, sunset int64) bool {
	if dt == 0 || sunrise == 0 || sunset == 0 {
		return true
	}
	return dt >= sunrise && dt < sunset
}

// MoonPhase is one of the eight conventional lunar phases.
type MoonPhase int

const (
	MoonNew MoonPhase = iota
	MoonWaxingCrescent
	MoonFirstQuarter
	MoonWaxingGibbous
	MoonFull
	MoonWaningGibbous
	MoonLastQuarter
	MoonWaningCrescent
)

const synodicMonth = 29.53058867

var moonPhaseNames = [...]string{
	"new moon",
	"waxing crescent",
	"first quarter",
	"waxing gibbous",
	"full moon",
	"waning gibbous",
	"last quarter",
	"waning crescent",
}

var moonPhaseIcons = [...]string{"🌑", "🌒", "🌓", "🌔", "🌕", "🌖", "🌗", "🌘"}

func (p MoonPhase) String() string {
	if p < 0 || int(p) >= len(moonPhaseNames) {
		return moonPhaseNames[MoonFull]
	}
	return moonPhaseNames[p]
}

// Icon returns the phase as a moon emoji.
func (p MoonPhase) Icon() string {
	if p < 0 || int(p) >= len(moonPhaseIcons) {
		return moonPhaseIcons[MoonFull]
	}
	return moonPhaseIcons[p]
}

// MoonPhaseAt approximates the lunar phase on t's calendar date.
func MoonPhaseAt(t time.Time) MoonPhase {
	year, month, day := t.Date()
	y, m := float64(year), float64(month)
	if m < 3 {
		y--
		m += 12
	}

	jd := 365.25*y + 30.6*m + float64(day) - 694039.09
	phase := jd / synodicMonth
	fraction := phase - math.Floor(phase)
	return MoonPhase(int(math.Floor(fraction*8)) % 8)
}
