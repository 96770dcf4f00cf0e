package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/remote"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultOpenWeatherBaseURL is the public OpenWeatherMap API host.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// searchLimit caps direct geocoding results.
const searchLimit = 5

// OpenWeather is a client for the OpenWeatherMap weather, forecast,
// geocoding and air pollution endpoints. Weather payloads are returned as
// raw bytes so callers can cache them verbatim.
type OpenWeather struct {
	apiKey  string
	baseURL string
	remote  *remote.Client
}

// NewOpenWeather creates a client. An empty baseURL selects the public API.
func NewOpenWeather(client *http.Client, apiKey, baseURL string) *OpenWeather {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeather{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		remote:  remote.NewClient("openweather", client),
	}
}

// CurrentByName fetches current conditions for a city name.
func (p *OpenWeather) CurrentByName(ctx context.Context, city string) ([]byte, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	return p.get(ctx, "openweather current weather", "/data/2.5/weather", q)
}

// CurrentByCoords fetches current conditions for a coordinate pair.
func (p *OpenWeather) CurrentByCoords(ctx context.Context, lat, lon float64) ([]byte, error) {
	q := coordQuery(lat, lon)
	q.Set("units", "metric")
	return p.get(ctx, "openweather current weather", "/data/2.5/weather", q)
}

// Forecast fetches the 5-day/3-hour forecast.
func (p *OpenWeather) Forecast(ctx context.Context, lat, lon float64) ([]byte, error) {
	q := coordQuery(lat, lon)
	q.Set("units", "metric")
	return p.get(ctx, "openweather forecast", "/data/2.5/forecast", q)
}

// AirQuality fetches the current air pollution reading.
func (p *OpenWeather) AirQuality(ctx context.Context, lat, lon float64) ([]byte, error) {
	return p.get(ctx, "openweather air pollution", "/data/2.5/air_pollution", coordQuery(lat, lon))
}

// Geocode resolves a free-text city query to at most five locations.
func (p *OpenWeather) Geocode(ctx context.Context, query string) ([]weather.GeoLocation, error) {
	const op = "openweather geocode"

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(searchLimit))
	body, err := p.get(ctx, op, "/geo/1.0/direct", q)
	if err != nil {
		return nil, err
	}

	var out []weather.GeoLocation
	if err := remote.Decode(op, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReverseGeocode resolves coordinates to place names.
func (p *OpenWeather) ReverseGeocode(ctx context.Context, lat, lon float64) ([]weather.GeoLocation, error) {
	const op = "openweather reverse geocode"

	q := coordQuery(lat, lon)
	q.Set("limit", "1")
	body, err := p.get(ctx, op, "/geo/1.0/reverse", q)
	if err != nil {
		return nil, err
	}

	var out []weather.GeoLocation
	if err := remote.Decode(op, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *OpenWeather) get(ctx context.Context, op, path string, q url.Values) ([]byte, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%s: openweather api key is not configured", op)
	}
	q.Set("appid", p.apiKey)

	return p.remote.Do(ctx, op, func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, q.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	})
}

func coordQuery(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return q
}
