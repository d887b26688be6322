package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// TimerMetrics logs method, path, status and duration of every request.
func TimerMetrics(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	duration := time.Since(start)

	status := c.Response().StatusCode()
	if err != nil {
		// the error handler has not written the response yet
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	event := log.Info()
	if status >= fiber.StatusInternalServerError {
		event = log.Error().Err(err)
	}
	event = event.
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("duration", duration)

	if route := c.Route().Name; route != "" {
		event = event.Str("route", route)
	}
	if userID := c.Locals("user_id"); userID != nil {
		event = event.Interface("user_id", userID)
	}
	event.Msg("request")

	return err
}
