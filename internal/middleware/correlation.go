package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderCorrelationID carries the request correlation identifier in both directions.
const HeaderCorrelationID = "X-Correlation-ID"

type correlationIDKey struct{}

// CorrelationID reuses the caller's correlation or request id, or mints one, and echoes it back.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderCorrelationID))
		if id == "" {
			id = strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals("correlation_id", id)
		c.Set(HeaderCorrelationID, id)
		c.SetUserContext(context.WithValue(c.UserContext(), correlationIDKey{}, id))

		return c.Next()
	}
}

// CorrelationIDFromContext extracts the correlation identifier from context, if present.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals("correlation_id").(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}

// RequestLogger decorates base with the request's correlation id.
func RequestLogger(c *fiber.Ctx, base zerolog.Logger) zerolog.Logger {
	id := GetCorrelationID(c)
	if id == "" {
		return base
	}
	return base.With().Str("correlation_id", id).Logger()
}
