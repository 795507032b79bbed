package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/truskill-essay-api/internal/utils"
)

// RateLimit limits each authenticated user, or client IP when anonymous, to max requests per window.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 3
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := UserID(c); ok {
				return fmt.Sprintf("%s:user:%d", identifier, userID)
			}
			return fmt.Sprintf("%s:ip:%s", identifier, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Fail(c, fiber.StatusTooManyRequests, "too many submissions, please wait before trying again", nil)
		},
	})
}
