package weather

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const secondsPerHour = 3600

// ticksPerDay is how often a 5d chart carries a day label instead of an hour.
const ticksPerDay = 24

// Point is one hourly chart point.
type Point struct {
	Timestamp                int64     `json:"timestamp"`
	Temperature              int       `json:"temperature"`
	FeelsLike                int       `json:"feelsLike"`
	Humidity                 int       `json:"humidity"`
	PrecipitationProbability int       `json:"precipitationProbability"`
	WindSpeed                float64   `json:"windSpeed"`
	IconCode                 string    `json:"iconCode"`
	Description              string    `json:"description"`
	Condition                Condition `json:"condition"`

	HourLabel  string `json:"hourLabel"`
	ShortLabel string `json:"shortLabel"`
	FullLabel  string `json:"fullLabel"`
	TickLabel  string `json:"tickLabel"`

	// Interpolated Celsius values, kept so the unit can be switched without
	// re-deriving the series.
	RawTemperature float64 `json:"-"`
	RawFeelsLike   float64 `json:"-"`
	Unit           Unit    `json:"unit"`
}

// Expand interpolates the first horizon.SampleLimit() samples into hourly
// points. The last sample is only ever the right endpoint of the final pair.
func Expand(samples []RawSample, horizon Horizon, unit Unit, loc *time.Location) []Point {
	limit := horizon.SampleLimit()
	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}
	points := ExpandAll(samples, unit, loc)
	if horizon == Horizon5d {
		for i := range points {
			if i%ticksPerDay == 0 {
				points[i].TickLabel = points[i].ShortLabel
			}
		}
	}
	return points
}

// ExpandAll interpolates every sample without truncation. It is used for
// the single-day drill-down.
func ExpandAll(samples []RawSample, unit Unit, loc *time.Location) []Point {
	if len(samples) < 2 {
		return []Point{}
	}
	if loc == nil {
		loc = time.UTC
	}

	points := make([]Point, 0, (len(samples)-1)*3)
	for i := 0; i < len(samples)-1; i++ {
		cur, next := samples[i], samples[i+1]
		steps := float64(next.Timestamp-cur.Timestamp) / secondsPerHour

		// Duplicate or out-of-order timestamps yield the left sample alone.
		if steps <= 0 {
			points = append(points, newPoint(cur, cur, 0, 0, unit, loc))
			continue
		}
		for j := 0; float64(j) < steps; j++ {
			fraction := float64(j) / steps
			points = append(points, newPoint(cur, next, fraction, int64(j)*secondsPerHour, unit, loc))
		}
	}
	return points
}

func newPoint(cur, next RawSample, fraction float64, offset int64, unit Unit, loc *time.Location) Point {
	p := Point{
		Timestamp:                cur.Timestamp + offset,
		RawTemperature:           lerp(cur.Temperature, next.Temperature, fraction),
		RawFeelsLike:             lerp(cur.FeelsLike, next.FeelsLike, fraction),
		Humidity:                 roundHalfUp(lerp(cur.Humidity, next.Humidity, fraction)),
		PrecipitationProbability: roundHalfUp(lerp(cur.PrecipitationProbability, next.PrecipitationProbability, fraction) * 100),
		WindSpeed:                oneDecimal(lerp(cur.WindSpeed, next.WindSpeed, fraction)),
		IconCode:                 cur.IconCode,
		Description:              cur.Description,
		Condition:                cur.Condition,
	}
	p.setUnit(unit)

	t := time.Unix(p.Timestamp, 0).In(loc)
	p.HourLabel = HourLabel(t)
	p.ShortLabel = ShortLabel(t)
	p.FullLabel = FullLabel(t)
	p.TickLabel = p.HourLabel
	return p
}

func (p *Point) setUnit(unit Unit) {
	if unit == "" {
		unit = Celsius
	}
	p.Unit = unit
	p.Temperature = roundHalfUp(unit.Convert(p.RawTemperature))
	p.FeelsLike = roundHalfUp(unit.Convert(p.RawFeelsLike))
}

// ApplyUnit returns a copy of points with display temperatures recomputed
// for unit. Switching back and forth yields the original values.
func ApplyUnit(points []Point, unit Unit) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	for i := range out {
		out[i].setUnit(unit)
	}
	return out
}

// HasPrecipitation reports whether any point has a positive precipitation
// probability.
func HasPrecipitation(points []Point) bool {
	for _, p := range points {
		if p.PrecipitationProbability > 0 {
			return true
		}
	}
	return false
}

// SamplesForDay returns the samples whose local date in loc equals day's.
func SamplesForDay(samples []RawSample, day time.Time, loc *time.Location) []RawSample {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	out := make([]RawSample, 0, 8)
	for _, s := range samples {
		sy, sm, sd := time.Unix(s.Timestamp, 0).In(loc).Date()
		if sy == y && sm == m && sd == d {
			out = append(out, s)
		}
	}
	return out
}

func lerp(a, b, fraction float64) float64 {
	return a + (b-a)*fraction
}

// roundHalfUp rounds to the nearest integer with halves going toward
// positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func oneDecimal(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
