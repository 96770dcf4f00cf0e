package weather

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// ClassifyCondition maps a provider's condition group (e.g. "Clouds") to a
// Condition, falling back to keywords in the free-text description.
func ClassifyCondition(main, description string) Condition {
	switch main {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionCloudy
	case "Rain", "Drizzle":
		return ConditionRain
	case "Snow":
		return ConditionSnow
	case "Thunderstorm":
		return ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust", "Sand", "Ash":
		return ConditionMist
	}

	switch {
	case description == "":
		return ConditionUnknown
	case common.HasAny(description, "thunder", "storm"):
		return ConditionStorm
	case common.HasAny(description, "snow", "sleet", "blizzard"):
		return ConditionSnow
	case common.HasAny(description, "rain", "shower", "drizzle"):
		return ConditionRain
	case common.HasAny(description, "mist", "fog", "haze"):
		return ConditionMist
	case common.HasAny(description, "cloud", "overcast"):
		return ConditionCloudy
	case common.HasAny(description, "sunny", "clear"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}

// Coord is a latitude/longitude pair as the provider reports it.
type Coord struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Descriptor is one entry of the provider's "weather" array.
type Descriptor struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Readings is the provider's "main" block.
type Readings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity" validate:"gte=0,lte=100"`
}

// Wind is the provider's "wind" block.
type Wind struct {
	Speed float64 `json:"speed" validate:"gte=0"`
	Deg   float64 `json:"deg"`
	Gust  float64 `json:"gust,omitempty"`
}

// CurrentWeather is the current-conditions payload.
type CurrentWeather struct {
	ID         int64        `json:"id"`
	Name       string       `json:"name"`
	Coord      Coord        `json:"coord"`
	Weather    []Descriptor `json:"weather" validate:"min=1"`
	Main       Readings     `json:"main"`
	Visibility int          `json:"visibility"`
	Wind       Wind         `json:"wind"`
	Clouds     struct {
		All int `json:"all"`
	} `json:"clouds"`
	Dt  int64 `json:"dt" validate:"gt=0"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int `json:"timezone"`
}

// Condition classifies the first weather descriptor.
func (c CurrentWeather) Condition() Condition {
	if len(c.Weather) == 0 {
		return ConditionUnknown
	}
	return ClassifyCondition(c.Weather[0].Main, c.Weather[0].Description)
}

// IsDaytime reports whether the observation falls between sunrise and sunset.
func (c CurrentWeather) IsDaytime() bool {
	return IsDaytime(c.Dt, c.Sys.Sunrise, c.Sys.Sunset)
}

// Location returns the observation's fixed UTC offset.
func (c CurrentWeather) Location() *time.Location {
	return time.FixedZone(c.Name, c.Timezone)
}

// ForecastItem is one 3-hourly entry of the forecast payload.
type ForecastItem struct {
	Dt      int64        `json:"dt" validate:"gt=0"`
	Main    Readings     `json:"main"`
	Weather []Descriptor `json:"weather"`
	Wind    Wind         `json:"wind"`
	Pop     float64      `json:"pop" validate:"gte=0,lte=1"`
	DtTxt   string       `json:"dt_txt"`
}

// ForecastCity describes the location a forecast belongs to.
type ForecastCity struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Coord    Coord  `json:"coord"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"`
	Sunrise  int64  `json:"sunrise"`
	Sunset   int64  `json:"sunset"`
}

// Forecast is the 5-day/3-hour forecast payload.
type Forecast struct {
	Cnt  int            `json:"cnt"`
	List []ForecastItem `json:"list" validate:"required,dive"`
	City ForecastCity   `json:"city"`
}

// Samples narrows the payload into RawSamples, preserving provider order.
func (f Forecast) Samples() []RawSample {
	samples := make([]RawSample, 0, len(f.List))
	for _, item := range f.List {
		s := RawSample{
			Timestamp:                item.Dt,
			Temperature:              item.Main.Temp,
			FeelsLike:                item.Main.FeelsLike,
			Humidity:                 item.Main.Humidity,
			PrecipitationProbability: item.Pop,
			WindSpeed:                item.Wind.Speed,
		}
		if len(item.Weather) > 0 {
			s.IconCode = item.Weather[0].Icon
			s.Description = item.Weather[0].Description
			s.Condition = ClassifyCondition(item.Weather[0].Main, item.Weather[0].Description)
		}
		samples = append(samples, s)
	}
	return samples
}

// Location returns the forecast city's fixed UTC offset, used for labels and
// day boundaries.
func (f Forecast) Location() *time.Location {
	return time.FixedZone(f.City.Name, f.City.Timezone)
}

// GeoLocation is one geocoding or reverse-geocoding result.
type GeoLocation struct {
	Name       string            `json:"name" validate:"required"`
	LocalNames map[string]string `json:"local_names,omitempty"`
	Lat        float64           `json:"lat" validate:"gte=-90,lte=90"`
	Lon        float64           `json:"lon" validate:"gte=-180,lte=180"`
	Country    string            `json:"country"`
	State      string            `json:"state,omitempty"`
}

// AirQualityReading is one entry of the air-pollution payload.
type AirQualityReading struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi" validate:"gte=1,lte=5"`
	} `json:"main"`
	Components map[string]float64 `json:"components"`
}

// AirQuality is the air-pollution payload.
type AirQuality struct {
	Coord Coord               `json:"coord"`
	List  []AirQualityReading `json:"list" validate:"required,min=1,dive"`
}

// Index returns the current air quality index (1 good .. 5 very poor).
func (a AirQuality) Index() int {
	if len(a.List) == 0 {
		return 0
	}
	return a.List[0].Main.AQI
}
