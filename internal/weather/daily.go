package weather

import (
	"math"
	"time"
)

// DaySummary is the card shown for one calendar day of the forecast.
type DaySummary struct {
	Date                        string    `json:"date"`
	Label                       string    `json:"label"`
	Temperature                 int       `json:"temperature"`
	MinTemperature              int       `json:"minTemperature"`
	MaxTemperature              int       `json:"maxTemperature"`
	MaxPrecipitationProbability int       `json:"maxPrecipitationProbability"`
	IconCode                    string    `json:"iconCode"`
	Description                 string    `json:"description"`
	Condition                   Condition `json:"condition"`
	Samples                     int       `json:"samples"`
}

// SummarizeDays groups samples by local date in loc, in order of first
// appearance. Each day is represented by its noon sample (or its first
// sample); min/max are taken over all of the day's samples and the
// condition is chosen by majority, first seen on ties.
func SummarizeDays(samples []RawSample, unit Unit, loc *time.Location) []DaySummary {
	if loc == nil {
		loc = time.UTC
	}

	type bucket struct {
		rep      RawSample
		hasNoon  bool
		min, max float64
		maxPop   float64
		counts   map[Condition]int
		order    []Condition
		n        int
	}

	var days []string
	buckets := make(map[string]*bucket)

	for _, s := range samples {
		t := time.Unix(s.Timestamp, 0).In(loc)
		key := DayKey(t)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				rep:    s,
				min:    math.Inf(1),
				max:    math.Inf(-1),
				counts: make(map[Condition]int),
			}
			buckets[key] = b
			days = append(days, key)
		}
		if !b.hasNoon && t.Hour() == 12 {
			b.rep = s
			b.hasNoon = true
		}

		b.min = math.Min(b.min, s.Temperature)
		b.max = math.Max(b.max, s.Temperature)
		b.maxPop = math.Max(b.maxPop, s.PrecipitationProbability)
		if b.counts[s.Condition] == 0 {
			b.order = append(b.order, s.Condition)
		}
		b.counts[s.Condition]++
		b.n++
	}

	out := make([]DaySummary, 0, len(days))
	for _, key := range days {
		b := buckets[key]

		bestCond := ConditionUnknown
		bestCount := 0
		for _, cond := range b.order {
			if count := b.counts[cond]; count > bestCount {
				bestCount = count
				bestCond = cond
			}
		}

		out = append(out, DaySummary{
			Date:                        key,
			Label:                       ShortLabel(time.Unix(b.rep.Timestamp, 0).In(loc)),
			Temperature:                 roundHalfUp(unit.Convert(b.rep.Temperature)),
			MinTemperature:              roundHalfUp(unit.Convert(b.min)),
			MaxTemperature:              roundHalfUp(unit.Convert(b.max)),
			MaxPrecipitationProbability: roundHalfUp(b.maxPop * 100),
			IconCode:                    b.rep.IconCode,
			Description:                 b.rep.Description,
			Condition:                   bestCond,
			Samples:                     b.n,
		})
	}
	return out
}
