package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/remote"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// geocoderMu serializes access to the geocoder package's global API key.
var geocoderMu sync.Mutex

// GoogleGeocoder resolves places through the Google Maps geocoding API.
type GoogleGeocoder struct {
	apiKey string
}

// NewGoogleGeocoder creates a geocoder using apiKey.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

// Geocode returns the single best match for query.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) ([]weather.GeoLocation, error) {
	const op = "google geocode"
	if err := ctx.Err(); err != nil {
		return nil, &remote.NetworkError{Op: op, Err: err}
	}

	geocoderMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	geocoderMu.Unlock()
	if err != nil {
		return nil, &remote.NetworkError{Op: op, Err: err}
	}

	name, country := splitQuery(query)
	return []weather.GeoLocation{{
		Name:    name,
		Country: country,
		Lat:     loc.Latitude,
		Lon:     loc.Longitude,
	}}, nil
}

// ReverseGeocode returns the places Google reports for the coordinates.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) ([]weather.GeoLocation, error) {
	const op = "google reverse geocode"
	if err := ctx.Err(); err != nil {
		return nil, &remote.NetworkError{Op: op, Err: err}
	}

	geocoderMu.Lock()
	geocoder.ApiKey = g.apiKey
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	geocoderMu.Unlock()
	if err != nil {
		return nil, &remote.NetworkError{Op: op, Err: err}
	}

	out := make([]weather.GeoLocation, 0, len(addresses))
	for _, a := range addresses {
		name := a.City
		if name == "" {
			name = a.FormattedAddress
		}
		if name == "" {
			continue
		}
		out = append(out, weather.GeoLocation{
			Name:    name,
			Country: a.Country,
			State:   a.State,
			Lat:     lat,
			Lon:     lon,
		})
	}
	return out, nil
}

// splitQuery splits "City, Country" into its parts.
func splitQuery(query string) (string, string) {
	name, country, _ := strings.Cut(query, ",")
	return strings.TrimSpace(name), strings.TrimSpace(country)
}
