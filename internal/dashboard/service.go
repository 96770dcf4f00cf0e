// Package dashboard orchestrates every fetch the weather dashboard makes:
// it consults the response cache, calls the provider or account service,
// and records each outcome in the request state of the operation's kind.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-dashboard/internal/account"
	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/remote"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/state"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultSearchDebounce is the quiet period before a search-as-you-type
// query is sent.
const DefaultSearchDebounce = 300 * time.Millisecond

// minSearchLength is the shortest query search-as-you-type will send.
const minSearchLength = 3

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNoForecast       = errors.New("no forecast loaded")
	ErrNoCurrentWeather = errors.New("no current weather loaded")
	ErrInvalidInput     = errors.New("invalid input")

	errSignedOutMeanwhile = fmt.Errorf("%w: signed out before sign-in completed", ErrNotAuthenticated)
)

// WeatherProvider returns raw provider payloads so they can be cached
// verbatim.
type WeatherProvider interface {
	CurrentByName(ctx context.Context, city string) ([]byte, error)
	CurrentByCoords(ctx context.Context, lat, lon float64) ([]byte, error)
	Forecast(ctx context.Context, lat, lon float64) ([]byte, error)
	AirQuality(ctx context.Context, lat, lon float64) ([]byte, error)
}

// Geocoder resolves place names and coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]weather.GeoLocation, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) ([]weather.GeoLocation, error)
}

// Accounts is the account/favorites service.
type Accounts interface {
	Login(ctx context.Context, email, password string) (account.LoginResult, error)
	Register(ctx context.Context, username, email, password string) (string, error)
	ListFavorites(ctx context.Context, token string) ([]account.Favorite, error)
	AddFavorite(ctx context.Context, token string, fav account.Favorite) (json.RawMessage, error)
	RemoveFavorite(ctx context.Context, token, id string) (json.RawMessage, error)
	GoogleLoginURL() string
}

// Dependencies are the collaborators of a Service.
type Dependencies struct {
	Cache          *cache.Cache
	Weather        WeatherProvider
	Geocoder       Geocoder
	Accounts       Accounts
	Sessions       session.Store
	Logger         zerolog.Logger
	SearchDebounce time.Duration
}

// Service runs dashboard operations.
type Service struct {
	cache    *cache.Cache
	weather  WeatherProvider
	geo      Geocoder
	accounts Accounts
	sessions session.Store
	states   *States
	search   *Debouncer
	log      zerolog.Logger

	// cancel ends the context debounced searches run under.
	cancel context.CancelFunc

	mu    sync.RWMutex
	sess  session.Session
	epoch uint64 // bumped by Logout
}

// NewService wires a Service and restores the persisted session.
func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Cache == nil:
		return nil, errors.New("dashboard: cache is required")
	case deps.Weather == nil:
		return nil, errors.New("dashboard: weather provider is required")
	case deps.Accounts == nil:
		return nil, errors.New("dashboard: account client is required")
	case deps.Sessions == nil:
		return nil, errors.New("dashboard: session store is required")
	}

	geo := deps.Geocoder
	if geo == nil {
		g, ok := deps.Weather.(Geocoder)
		if !ok {
			return nil, errors.New("dashboard: geocoder is required")
		}
		geo = g
	}

	debounce := deps.SearchDebounce
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}

	sess, err := deps.Sessions.LoadSession()
	if err != nil {
		deps.Logger.Warn().Err(err).Msg("could not restore session; starting signed out")
		sess = session.Session{}
	}

	base, cancel := context.WithCancel(context.Background())
	return &Service{
		cache:    deps.Cache,
		weather:  deps.Weather,
		geo:      geo,
		accounts: deps.Accounts,
		sessions: deps.Sessions,
		states:   NewStates(deps.Logger),
		search:   NewDebouncer(base, debounce),
		log:      deps.Logger,
		cancel:   cancel,
		sess:     sess,
	}, nil
}

// States exposes the per-kind request states.
func (s *Service) States() *States { return s.states }

// Close stops pending debounced work.
func (s *Service) Close() {
	s.search.Cancel()
	s.cancel()
}

// CurrentWeatherByName loads current conditions for a city, from cache when
// fresh.
func (s *Service) CurrentWeatherByName(ctx context.Context, city string) (weather.CurrentWeather, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return weather.CurrentWeather{}, fmt.Errorf("%w: city is empty", ErrInvalidInput)
	}
	return cachedFetch(ctx, s, s.states.CurrentWeather, "current weather", cache.WeatherByNameKey(city),
		func(ctx context.Context) ([]byte, error) { return s.weather.CurrentByName(ctx, city) })
}

// CurrentWeatherByCoords loads current conditions for coordinates, from
// cache when fresh.
func (s *Service) CurrentWeatherByCoords(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	if err := checkCoords(lat, lon); err != nil {
		return weather.CurrentWeather{}, err
	}
	return cachedFetch(ctx, s, s.states.CurrentWeather, "current weather", cache.WeatherByCoordsKey(lat, lon),
		func(ctx context.Context) ([]byte, error) { return s.weather.CurrentByCoords(ctx, lat, lon) })
}

// Forecast loads the 5-day/3-hour forecast, from cache when fresh.
func (s *Service) Forecast(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	if err := checkCoords(lat, lon); err != nil {
		return weather.Forecast{}, err
	}
	return cachedFetch(ctx, s, s.states.Forecast, "forecast", cache.ForecastKey(lat, lon),
		func(ctx context.Context) ([]byte, error) { return s.weather.Forecast(ctx, lat, lon) })
}

// WarmForecast refreshes the cached forecast for coordinates unless a fresh
// entry exists. It reports whether a network call was made. Request states
// are not touched.
func (s *Service) WarmForecast(ctx context.Context, lat, lon float64) (bool, error) {
	key := cache.ForecastKey(lat, lon)
	if _, ok := s.cache.Get(ctx, key); ok {
		return false, nil
	}

	body, err := s.weather.Forecast(ctx, lat, lon)
	if err != nil {
		return true, err
	}
	var f weather.Forecast
	if err := remote.Decode("forecast", body, &f); err != nil {
		return true, err
	}
	if err := s.cache.Put(ctx, key, body); err != nil {
		return true, fmt.Errorf("store forecast: %w", err)
	}
	return true, nil
}

// SearchCities geocodes a free-text query.
func (s *Service) SearchCities(ctx context.Context, query string) ([]weather.GeoLocation, error) {
	return run(ctx, s, s.states.CitySearch, func() ([]weather.GeoLocation, error) {
		return s.geo.Geocode(ctx, strings.TrimSpace(query))
	})
}

// SearchAsYouType debounces keystrokes: only a query that survives the quiet
// period is sent. Queries shorter than three characters clear the results.
func (s *Service) SearchAsYouType(query string) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		// Cancel ends the context of a running search before Reset, and
		// searches only begin under a live context, so the cleared state
		// stays cleared.
		s.search.Cancel()
		s.states.CitySearch.Reset()
		return
	}
	s.search.Trigger(func(ctx context.Context) {
		if _, err := s.SearchCities(ctx, query); err != nil {
			s.log.Debug().Err(err).Str("query", query).Msg("search failed")
		}
	})
}

// ReverseGeocode resolves coordinates to place names.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lon float64) ([]weather.GeoLocation, error) {
	if err := checkCoords(lat, lon); err != nil {
		return nil, err
	}
	return run(ctx, s, s.states.ReverseGeocode, func() ([]weather.GeoLocation, error) {
		return s.geo.ReverseGeocode(ctx, lat, lon)
	})
}

// AirQuality loads the air pollution index for coordinates.
func (s *Service) AirQuality(ctx context.Context, lat, lon float64) (weather.AirQuality, error) {
	if err := checkCoords(lat, lon); err != nil {
		return weather.AirQuality{}, err
	}
	return run(ctx, s, s.states.AirQuality, func() (weather.AirQuality, error) {
		body, err := s.weather.AirQuality(ctx, lat, lon)
		if err != nil {
			return weather.AirQuality{}, err
		}
		var aq weather.AirQuality
		if err := remote.Decode("air quality", body, &aq); err != nil {
			return weather.AirQuality{}, err
		}
		return aq, nil
	})
}

// cachedFetch runs a cacheable operation. A fresh cache entry settles the
// request without a network call; otherwise the fetched body is validated,
// stored and settled.
func cachedFetch[T any](ctx context.Context, s *Service, m *state.Machine[T], op, key string, fetch func(context.Context) ([]byte, error)) (T, error) {
	var zero T
	id, err := m.BeginContext(ctx)
	if err != nil {
		return zero, err
	}

	if raw, ok := s.cache.Get(ctx, key); ok {
		var v T
		err := remote.Decode(op, raw, &v)
		if err == nil {
			s.settled(m.Kind(), m.Succeed(id, v))
			return v, nil
		}
		s.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
	}

	body, err := fetch(ctx)
	if err != nil {
		s.settled(m.Kind(), m.Fail(id, err))
		return zero, err
	}

	var v T
	if err := remote.Decode(op, body, &v); err != nil {
		s.settled(m.Kind(), m.Fail(id, err))
		return zero, err
	}

	if err := s.cache.Put(ctx, key, body); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	s.settled(m.Kind(), m.Succeed(id, v))
	return v, nil
}

// run executes a non-cacheable operation against m. Nothing starts when ctx
// is already done.
func run[T any](ctx context.Context, s *Service, m *state.Machine[T], call func() (T, error)) (T, error) {
	id, err := m.BeginContext(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := call()
	if err != nil {
		s.settled(m.Kind(), m.Fail(id, err))
		return v, err
	}
	s.settled(m.Kind(), m.Succeed(id, v))
	return v, nil
}

// settled logs settlements refused because the kind was reset meanwhile.
func (s *Service) settled(kind state.Kind, err error) {
	if err != nil {
		s.log.Debug().Err(err).Str("kind", string(kind)).Msg("settlement dropped")
	}
}

func checkCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates %v,%v out of range", ErrInvalidInput, lat, lon)
	}
	return nil
}
