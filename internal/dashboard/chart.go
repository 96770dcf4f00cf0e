package dashboard

import (
	"fmt"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Chart is the hourly series for the loaded forecast.
type Chart struct {
	City             string               `json:"city"`
	Country          string               `json:"country"`
	Horizon          weather.Horizon      `json:"horizon,omitempty"`
	Day              string               `json:"day,omitempty"`
	Unit             weather.Unit         `json:"unit"`
	HasPrecipitation bool                 `json:"hasPrecipitation"`
	Points           []weather.Point      `json:"points"`
	Days             []weather.DaySummary `json:"days,omitempty"`
}

// Chart derives the series for horizon from the forecast state. It never
// issues a request.
func (s *Service) Chart(horizon weather.Horizon, unit weather.Unit) (Chart, error) {
	f, err := s.loadedForecast()
	if err != nil {
		return Chart{}, err
	}

	loc := f.Location()
	samples := f.Samples()
	points := weather.Expand(samples, horizon, unit, loc)
	return Chart{
		City:             f.City.Name,
		Country:          f.City.Country,
		Horizon:          horizon,
		Unit:             unit,
		HasPrecipitation: weather.HasPrecipitation(points),
		Points:           points,
		Days:             weather.SummarizeDays(samples, unit, loc),
	}, nil
}

// DayChart interpolates only the samples of day (YYYY-MM-DD, in the
// forecast city's offset).
func (s *Service) DayChart(day string, unit weather.Unit) (Chart, error) {
	f, err := s.loadedForecast()
	if err != nil {
		return Chart{}, err
	}

	loc := f.Location()
	d, err := weather.ParseDay(day, loc)
	if err != nil {
		return Chart{}, fmt.Errorf("%w: day %q: %v", ErrInvalidInput, day, err)
	}

	points := weather.ExpandAll(weather.SamplesForDay(f.Samples(), d, loc), unit, loc)
	return Chart{
		City:             f.City.Name,
		Country:          f.City.Country,
		Day:              weather.DayKey(d),
		Unit:             unit,
		HasPrecipitation: weather.HasPrecipitation(points),
		Points:           points,
	}, nil
}

func (s *Service) loadedForecast() (weather.Forecast, error) {
	snap := s.states.Forecast.Snapshot()
	if !snap.HasData {
		return weather.Forecast{}, ErrNoForecast
	}
	return snap.Data, nil
}

// Conditions is the current-weather card.
type Conditions struct {
	City        string            `json:"city"`
	Country     string            `json:"country"`
	Unit        weather.Unit      `json:"unit"`
	Temperature int               `json:"temperature"`
	FeelsLike   int               `json:"feelsLike"`
	Humidity    int               `json:"humidity"`
	WindSpeed   float64           `json:"windSpeed"`
	Description string            `json:"description"`
	IconCode    string            `json:"iconCode"`
	Condition   weather.Condition `json:"condition"`
	Daytime     bool              `json:"daytime"`
	MoonPhase   string            `json:"moonPhase,omitempty"`
	LocalTime   string            `json:"localTime"`
}

// Conditions derives the current-weather card from the current-weather
// state. The moon phase is only shown at night.
func (s *Service) Conditions(unit weather.Unit, now time.Time) (Conditions, error) {
	snap := s.states.CurrentWeather.Snapshot()
	if !snap.HasData {
		return Conditions{}, ErrNoCurrentWeather
	}
	cw := snap.Data

	pts := weather.ApplyUnit([]weather.Point{{RawTemperature: cw.Main.Temp, RawFeelsLike: cw.Main.FeelsLike}}, unit)
	c := Conditions{
		City:        cw.Name,
		Country:     cw.Sys.Country,
		Unit:        pts[0].Unit,
		Temperature: pts[0].Temperature,
		FeelsLike:   pts[0].FeelsLike,
		Humidity:    int(cw.Main.Humidity + 0.5),
		WindSpeed:   cw.Wind.Speed,
		Condition:   cw.Condition(),
		Daytime:     cw.IsDaytime(),
		LocalTime:   weather.FullLabel(now.In(cw.Location())),
	}
	if len(cw.Weather) > 0 {
		c.Description = cw.Weather[0].Description
		c.IconCode = cw.Weather[0].Icon
	}
	if !c.Daytime {
		c.MoonPhase = weather.MoonPhaseAt(now.In(cw.Location())).Icon()
	}
	return c, nil
}
