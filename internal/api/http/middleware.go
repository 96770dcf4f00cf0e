package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
)

// RequestLogger logs one structured line per request and tags the response
// with an X-Request-ID.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)

		chainErr := c.Next()
		if chainErr != nil {
			// Render now so the logged status matches what the client sees.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error()
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		}
		if chainErr != nil {
			event = event.Err(chainErr)
		}
		event.
			Str("request_id", id).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}

// RequireSession rejects requests with 401 when nobody is signed in.
func RequireSession(service *dashboard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !service.Session().Authenticated {
			return dashboard.ErrNotAuthenticated
		}
		return c.Next()
	}
}
