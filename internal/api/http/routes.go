package httpapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/account"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *dashboard.Service) {
	h := &handlers{service: service}
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", h.currentWeather)
	v1.Get("/weather/conditions", h.conditions)
	v1.Get("/weather/forecast", h.forecast)
	v1.Get("/weather/chart", h.chart)
	v1.Get("/weather/chart/:day", h.dayChart)
	v1.Get("/air", h.airQuality)

	v1.Get("/geo/search", h.search)
	v1.Post("/geo/typeahead", h.typeahead)
	v1.Get("/geo/reverse", h.reverseGeocode)

	v1.Post("/auth/login", h.login)
	v1.Post("/auth/register", h.register)
	v1.Post("/auth/logout", h.logout)
	v1.Get("/auth/google", h.googleLogin)
	v1.Get("/auth/callback", h.oauthCallback)
	v1.Get("/session", h.session)

	favorites := v1.Group("/favorites", RequireSession(service))
	favorites.Get("/", h.listFavorites)
	favorites.Post("/", h.addFavorite)
	favorites.Delete("/:id", h.removeFavorite)

	v1.Get("/preferences", h.preferences)
	v1.Put("/preferences", h.setPreferences)

	v1.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(service.States().View())
	})
}

type handlers struct {
	service *dashboard.Service
}

// coordQuery holds the lat/lon query parameters.
type coordQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// parseCoordQuery reads lat and lon. ok is false when neither is present.
func parseCoordQuery(c *fiber.Ctx) (q coordQuery, ok bool, err error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return q, false, nil
	}
	if latStr == "" || lonStr == "" {
		return q, false, errors.New("lat and lon must be given together")
	}

	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, false, errors.New("invalid lat")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, false, errors.New("invalid lon")
	}
	if err := validate.Struct(q); err != nil {
		return q, false, err
	}
	return q, true, nil
}

func requireCoords(c *fiber.Ctx) (coordQuery, error) {
	q, ok, err := parseCoordQuery(c)
	if err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !ok {
		return q, fiber.NewError(fiber.StatusBadRequest, "lat and lon query parameters are required")
	}
	return q, nil
}

// unitQuery returns the unit query parameter, falling back to the stored
// preference.
func (h *handlers) unitQuery(c *fiber.Ctx) (weather.Unit, error) {
	if raw := c.Query("unit"); raw != "" {
		u, err := weather.ParseUnit(raw)
		if err != nil {
			return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return u, nil
	}
	return h.service.Preferences().Unit, nil
}

func (h *handlers) currentWeather(c *fiber.Ctx) error {
	q, ok, err := parseCoordQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if ok {
		cw, err := h.service.CurrentWeatherByCoords(c.UserContext(), q.Lat, q.Lon)
		if err != nil {
			return err
		}
		return c.JSON(cw)
	}

	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		return fiber.NewError(fiber.StatusBadRequest, "city or lat/lon query parameters are required")
	}
	cw, err := h.service.CurrentWeatherByName(c.UserContext(), city)
	if err != nil {
		return err
	}
	return c.JSON(cw)
}

func (h *handlers) conditions(c *fiber.Ctx) error {
	unit, err := h.unitQuery(c)
	if err != nil {
		return err
	}
	cond, err := h.service.Conditions(unit, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(cond)
}

func (h *handlers) forecast(c *fiber.Ctx) error {
	q, err := requireCoords(c)
	if err != nil {
		return err
	}
	f, err := h.service.Forecast(c.UserContext(), q.Lat, q.Lon)
	if err != nil {
		return err
	}
	return c.JSON(f)
}

// chart serves the hourly series. With lat/lon the forecast is loaded first;
// otherwise the loaded forecast is used.
func (h *handlers) chart(c *fiber.Ctx) error {
	horizon := weather.Horizon24h
	if raw := c.Query("horizon"); raw != "" {
		parsed, err := weather.ParseHorizon(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		horizon = parsed
	}
	unit, err := h.unitQuery(c)
	if err != nil {
		return err
	}

	q, ok, err := parseCoordQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if ok {
		if _, err := h.service.Forecast(c.UserContext(), q.Lat, q.Lon); err != nil {
			return err
		}
	}

	chart, err := h.service.Chart(horizon, unit)
	if err != nil {
		return err
	}
	return c.JSON(chart)
}

func (h *handlers) dayChart(c *fiber.Ctx) error {
	unit, err := h.unitQuery(c)
	if err != nil {
		return err
	}
	chart, err := h.service.DayChart(c.Params("day"), unit)
	if err != nil {
		return err
	}
	return c.JSON(chart)
}

func (h *handlers) airQuality(c *fiber.Ctx) error {
	q, err := requireCoords(c)
	if err != nil {
		return err
	}
	aq, err := h.service.AirQuality(c.UserContext(), q.Lat, q.Lon)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"index":   aq.Index(),
		"reading": aq,
	})
}

type searchQuery struct {
	Q string `json:"q" validate:"required,min=1,max=100"`
}

func (h *handlers) search(c *fiber.Ctx) error {
	q := searchQuery{Q: strings.TrimSpace(c.Query("q"))}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	results, err := h.service.SearchCities(c.UserContext(), q.Q)
	if err != nil {
		return err
	}
	return c.JSON(results)
}

// typeahead feeds a keystroke into the debounced search. Results appear in
// the city-search state.
func (h *handlers) typeahead(c *fiber.Ctx) error {
	var body struct {
		Q string `json:"q" validate:"max=100"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	h.service.SearchAsYouType(body.Q)
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *handlers) reverseGeocode(c *fiber.Ctx) error {
	q, err := requireCoords(c)
	if err != nil {
		return err
	}
	places, err := h.service.ReverseGeocode(c.UserContext(), q.Lat, q.Lon)
	if err != nil {
		return err
	}
	return c.JSON(places)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *handlers) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *handlers) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	msg, err := h.service.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": msg})
}

func (h *handlers) logout(c *fiber.Ctx) error {
	if err := h.service.Logout(); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) googleLogin(c *fiber.Ctx) error {
	return c.Redirect(h.service.GoogleLoginURL(), fiber.StatusFound)
}

func (h *handlers) oauthCallback(c *fiber.Ctx) error {
	user, err := h.service.CompleteOAuth(c.UserContext(), c.Query("token"), c.Query("userid"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *handlers) session(c *fiber.Ctx) error {
	sess := h.service.Session()
	return c.JSON(fiber.Map{
		"authenticated": sess.Authenticated,
		"userId":        sess.UserID,
		"username":      sess.Username,
		"email":         sess.Email,
	})
}

func (h *handlers) listFavorites(c *fiber.Ctx) error {
	favs, err := h.service.ListFavorites(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(favs)
}

type favoriteRequest struct {
	CityName string  `json:"cityName" validate:"required"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon      float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (h *handlers) addFavorite(c *fiber.Ctx) error {
	var req favoriteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	reply, err := h.service.AddFavorite(c.UserContext(), account.Favorite{
		CityName: req.CityName,
		Country:  req.Country,
		Lat:      req.Lat,
		Lon:      req.Lon,
	})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusCreated).Send(reply)
}

func (h *handlers) removeFavorite(c *fiber.Ctx) error {
	if _, err := h.service.RemoveFavorite(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) preferences(c *fiber.Ctx) error {
	return c.JSON(h.service.Preferences())
}

func (h *handlers) setPreferences(c *fiber.Ctx) error {
	var prefs session.Preferences
	if err := c.BodyParser(&prefs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.service.SetPreferences(prefs); err != nil {
		return err
	}
	return c.JSON(prefs)
}

func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
