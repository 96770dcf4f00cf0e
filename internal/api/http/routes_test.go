package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/account"
	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

const (
	currentBody  = `{"name":"Paris","coord":{"lat":48.85,"lon":2.35},"weather":[{"main":"Clear","description":"clear sky","icon":"01d"}],"main":{"temp":20,"feels_like":19,"humidity":40},"wind":{"speed":3},"dt":1700000000,"sys":{"country":"FR","sunrise":1699990000,"sunset":1700030000},"timezone":0}`
	forecastBody = `{"cnt":3,"city":{"name":"Paris","country":"FR","timezone":0},"list":[` +
		`{"dt":1705330800,"main":{"temp":20,"feels_like":19,"humidity":50},"weather":[{"main":"Clear","description":"clear sky","icon":"01d"}],"wind":{"speed":2},"pop":0},` +
		`{"dt":1705341600,"main":{"temp":23,"feels_like":22,"humidity":50},"weather":[{"main":"Clear","description":"clear sky","icon":"01d"}],"wind":{"speed":2},"pop":0},` +
		`{"dt":1705352400,"main":{"temp":26,"feels_like":25,"humidity":50},"weather":[{"main":"Rain","description":"light rain","icon":"10d"}],"wind":{"speed":2},"pop":0.6}]}`
)

type fixture struct {
	app      *fiber.App
	svc      *dashboard.Service
	upstream atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/2.5/weather", func(w http.ResponseWriter, r *http.Request) {
		f.upstream.Add(1)
		if r.URL.Query().Get("q") == "Atlantis" {
			http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, currentBody)
	})
	mux.HandleFunc("GET /data/2.5/forecast", func(w http.ResponseWriter, r *http.Request) {
		f.upstream.Add(1)
		_, _ = io.WriteString(w, forecastBody)
	})
	mux.HandleFunc("GET /geo/1.0/direct", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"name":"Paris","country":"FR","lat":48.85,"lon":2.35}]`)
	})
	mux.HandleFunc("POST /users/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			_, _ = io.WriteString(w, `{"msg":"Wrong credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"msg":"Login Successfull","token":"tok","user":{"_id":"u1","username":"ann","email":"ann@example.com"}}`)
	})
	mux.HandleFunc("GET /favorites/allfavorites", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"Favorites":[{"_id":"f1","userId":"u1","cityName":"Paris","country":"FR","lat":48.85,"lon":2.35}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc, err := dashboard.NewService(dashboard.Dependencies{
		Cache:    cache.New(cache.NewMemoryBackend(), cache.DefaultTTL),
		Weather:  providers.NewOpenWeather(srv.Client(), "key", srv.URL),
		Accounts: account.NewClient(srv.Client(), srv.URL),
		Sessions: session.NewMemoryStore(),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	f.svc = svc
	f.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	f.app.Use(RequestLogger(zerolog.Nop()))
	RegisterRoutes(f.app, svc)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

// TestQueryValidation verifies that malformed query parameters are rejected
// before any upstream call.
func TestQueryValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		target string
	}{
		{"missing city and coordinates", "/api/v1/weather/current"},
		{"latitude out of range", "/api/v1/weather/current?lat=91&lon=0"},
		{"lat without lon", "/api/v1/weather/forecast?lat=10"},
		{"non-numeric lon", "/api/v1/weather/forecast?lat=10&lon=east"},
		{"unknown horizon", "/api/v1/weather/chart?horizon=7d"},
		{"unknown unit", "/api/v1/weather/chart?unit=K"},
		{"empty search", "/api/v1/geo/search?q=%20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodGet, tt.target, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
			}
			assert.Equal(t, true, body["error"])
		})
	}
	assert.Zero(t, f.upstream.Load())
}

func TestCurrentWeatherIsCached(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		resp, body := f.do(t, http.MethodGet, "/api/v1/weather/current?city=Paris", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Paris", body["name"])
	}
	assert.EqualValues(t, 1, f.upstream.Load())
}

func TestUpstreamNotFound(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/weather/current?city=Atlantis", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["message"], "404")

	resp, state := f.do(t, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, state["currentWeather"])
}

func TestChartBeforeForecastIsNotFound(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/v1/weather/chart", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChartLoadsForecast(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/weather/chart?lat=48.85&lon=2.35&horizon=24h&unit=C", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	points, ok := body["points"].([]any)
	require.True(t, ok)
	// Each pair of 3-hourly samples yields three hourly points; the final
	// sample only closes the last pair.
	require.Len(t, points, 6)
	last, ok := points[len(points)-1].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1705352400-3600, last["timestamp"])
	assert.Equal(t, true, body["hasPrecipitation"])

	resp, day := f.do(t, http.MethodGet, "/api/v1/weather/chart/2024-01-15?unit=F", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-01-15", day["day"])

	resp, _ = f.do(t, http.MethodGet, "/api/v1/weather/chart/15-01-2024", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginAndFavorites(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/v1/favorites", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ann@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ann@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["user"])

	resp, sess := f.do(t, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, sess["authenticated"])
	assert.NotContains(t, sess, "token")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil)
	raw, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, raw.StatusCode)
	var favs []account.Favorite
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&favs))
	require.Len(t, favs, 1)
	assert.Equal(t, "Paris", favs[0].CityName)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, f.svc.Session().Authenticated)
}

func TestLoginValidatesBody(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreferences(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/preferences", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "C", body["unit"])

	resp, _ = f.do(t, http.MethodPut, "/api/v1/preferences", `{"unit":"K","theme":"dark"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPut, "/api/v1/preferences", `{"unit":"F","theme":"dark"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = f.do(t, http.MethodGet, "/api/v1/preferences", "")
	assert.Equal(t, "F", body["unit"])
}

func TestSearchAndTypeahead(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/geo/search?q=Par", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/geo/typeahead", `{"q":"Pa"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get(fiber.HeaderXRequestID))

	resp, err = f.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/state", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}
