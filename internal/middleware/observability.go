package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/truskill-essay-api/internal/observability"
)

const observedPrefix = "/api/v2"

// Observability records Prometheus metrics and a structured access log line for essay API routes.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), observedPrefix) {
			return err
		}

		duration := time.Since(start)
		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		statusLabel := strconv.Itoa(status)

		observability.APIRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.APILatency().WithLabelValues(method, route).Observe(duration.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.APIErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		level := zerolog.InfoLevel
		switch {
		case status >= fiber.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= fiber.StatusBadRequest:
			level = zerolog.WarnLevel
		}
		logger.WithLevel(level).
			Str("correlation_id", GetCorrelationID(c)).
			Str("route", route).
			Str("method", method).
			Int("status", status).
			Dur("latency", duration).
			Msg("request completed")

		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}
