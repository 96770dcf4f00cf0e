package dashboard

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-dashboard/internal/account"
	"github.com/i474232898/weather-dashboard/internal/state"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// States holds one request state machine per operation kind.
type States struct {
	CurrentWeather   *state.Machine[weather.CurrentWeather]
	Forecast         *state.Machine[weather.Forecast]
	CitySearch       *state.Machine[[]weather.GeoLocation]
	ReverseGeocode   *state.Machine[[]weather.GeoLocation]
	AirQuality       *state.Machine[weather.AirQuality]
	Favorites        *state.Machine[[]account.Favorite]
	FavoriteMutation *state.Machine[json.RawMessage]
	Login            *state.Machine[account.User]
	Register         *state.Machine[string]
}

// NewStates creates idle machines and logs every transition to log.
func NewStates(log zerolog.Logger) *States {
	s := &States{
		CurrentWeather:   state.NewMachine[weather.CurrentWeather](state.KindCurrentWeather),
		Forecast:         state.NewMachine[weather.Forecast](state.KindForecast),
		CitySearch:       state.NewMachine[[]weather.GeoLocation](state.KindCitySearch),
		ReverseGeocode:   state.NewMachine[[]weather.GeoLocation](state.KindReverseGeocode),
		AirQuality:       state.NewMachine[weather.AirQuality](state.KindAirQuality),
		Favorites:        state.NewMachine[[]account.Favorite](state.KindFavorites),
		FavoriteMutation: state.NewMachine[json.RawMessage](state.KindFavoriteMutation),
		Login:            state.NewMachine[account.User](state.KindLogin),
		Register:         state.NewMachine[string](state.KindRegister),
	}

	watch(s.CurrentWeather, log)
	watch(s.Forecast, log)
	watch(s.CitySearch, log)
	watch(s.ReverseGeocode, log)
	watch(s.AirQuality, log)
	watch(s.Favorites, log)
	watch(s.FavoriteMutation, log)
	watch(s.Login, log)
	watch(s.Register, log)
	return s
}

func watch[T any](m *state.Machine[T], log zerolog.Logger) {
	m.Subscribe(func(snap state.Snapshot[T]) {
		ev := log.Debug()
		if snap.Status == state.StatusRejected {
			ev = log.Warn().Str("error", snap.Error)
		}
		ev.Str("kind", string(snap.Kind)).
			Str("status", string(snap.Status)).
			Str("request_id", snap.RequestID).
			Msg("state transition")
	})
}

// View is a point-in-time copy of every kind's state.
type View struct {
	CurrentWeather   state.Snapshot[weather.CurrentWeather] `json:"currentWeather"`
	Forecast         state.Snapshot[weather.Forecast]       `json:"forecast"`
	CitySearch       state.Snapshot[[]weather.GeoLocation]  `json:"citySearch"`
	ReverseGeocode   state.Snapshot[[]weather.GeoLocation]  `json:"reverseGeocode"`
	AirQuality       state.Snapshot[weather.AirQuality]     `json:"airQuality"`
	Favorites        state.Snapshot[[]account.Favorite]     `json:"favorites"`
	FavoriteMutation state.Snapshot[json.RawMessage]        `json:"favoriteMutation"`
	Login            state.Snapshot[account.User]           `json:"login"`
	Register         state.Snapshot[string]                 `json:"register"`
}

// View returns the current snapshots of all kinds.
func (s *States) View() View {
	return View{
		CurrentWeather:   s.CurrentWeather.Snapshot(),
		Forecast:         s.Forecast.Snapshot(),
		CitySearch:       s.CitySearch.Snapshot(),
		ReverseGeocode:   s.ReverseGeocode.Snapshot(),
		AirQuality:       s.AirQuality.Snapshot(),
		Favorites:        s.Favorites.Snapshot(),
		FavoriteMutation: s.FavoriteMutation.Snapshot(),
		Login:            s.Login.Snapshot(),
		Register:         s.Register.Snapshot(),
	}
}
