package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/account"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/remote"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrorHandler is the centralized Fiber error handler. It maps domain errors
// onto HTTP status codes and renders {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func statusFor(err error) int {
	var (
		fe        *fiber.Error
		ve        validator.ValidationErrors
		upstream  *remote.UpstreamError
		malformed *remote.MalformedResponseError
		network   *remote.NetworkError
	)

	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, dashboard.ErrInvalidInput),
		errors.Is(err, weather.ErrUnknownHorizon),
		errors.Is(err, weather.ErrUnknownUnit),
		errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, dashboard.ErrNotAuthenticated),
		errors.Is(err, account.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, dashboard.ErrNoForecast),
		errors.Is(err, dashboard.ErrNoCurrentWeather):
		return fiber.StatusNotFound
	case errors.Is(err, account.ErrRegistrationFailed):
		return fiber.StatusConflict
	case remote.IsCircuitOpen(err):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &upstream):
		if upstream.StatusCode == fiber.StatusNotFound {
			return fiber.StatusNotFound
		}
		return fiber.StatusBadGateway
	case errors.As(err, &malformed):
		return fiber.StatusBadGateway
	case errors.As(err, &network):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
