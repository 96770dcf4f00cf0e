package weather

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownHorizon = errors.New("unknown horizon")
	ErrUnknownUnit    = errors.New("unknown unit")
)

// RawSample is one 3-hourly forecast entry as the provider reported it.
type RawSample struct {
	Timestamp                int64     `json:"timestamp"`
	Temperature              float64   `json:"temperature"`
	FeelsLike                float64   `json:"feelsLike"`
	Humidity                 float64   `json:"humidity"`
	PrecipitationProbability float64   `json:"precipitationProbability"`
	WindSpeed                float64   `json:"windSpeed"`
	IconCode                 string    `json:"iconCode"`
	Description              string    `json:"description"`
	Condition                Condition `json:"condition"`
}

// Horizon selects how many raw samples feed the chart.
type Horizon string

const (
	Horizon24h Horizon = "24h"
	Horizon48h Horizon = "48h"
	Horizon5d  Horizon = "5d"
)

// SampleLimit returns the number of leading samples the horizon covers.
func (h Horizon) SampleLimit() int {
	switch h {
	case Horizon24h:
		return 9
	case Horizon48h:
		return 16
	case Horizon5d:
		return 40
	default:
		return 0
	}
}

// ParseHorizon accepts "24h", "48h" or "5d".
func ParseHorizon(s string) (Horizon, error) {
	h := Horizon(strings.ToLower(strings.TrimSpace(s)))
	if h.SampleLimit() == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownHorizon, s)
	}
	return h, nil
}

// Unit is the display temperature unit.
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// ParseUnit accepts "C" or "F" in either case; an empty string means Celsius.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "C":
		return Celsius, nil
	case "F":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// Convert converts a Celsius value to u without rounding.
func (u Unit) Convert(celsius float64) float64 {
	if u == Fahrenheit {
		return celsius*9/5 + 32
	}
	return celsius
}
