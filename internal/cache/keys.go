package cache

import (
	"strconv"
	"strings"
)

// WeatherByNameKey is the cache key for current weather looked up by city name.
func WeatherByNameKey(city string) string {
	return "weather_" + strings.ToLower(strings.TrimSpace(city))
}

// WeatherByCoordsKey is the cache key for current weather looked up by coordinates.
func WeatherByCoordsKey(lat, lon float64) string {
	return "weather_" + coords(lat, lon)
}

// ForecastKey is the cache key for the 5-day/3-hour forecast at coordinates.
func ForecastKey(lat, lon float64) string {
	return "forecast_" + coords(lat, lon)
}

func coords(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "_" + strconv.FormatFloat(lon, 'f', -1, 64)
}
