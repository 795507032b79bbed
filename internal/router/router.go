package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/truskill-essay-api/internal/config"
	"github.com/noah-isme/truskill-essay-api/internal/handler"
	"github.com/noah-isme/truskill-essay-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EssayHandler   *handler.EssayHandler
	ProfileHandler *handler.ProfileHandler
	ReportHandler  *handler.ReportHandler
	HealthProbes   map[string]handler.HealthProbe
	AuthMiddleware fiber.Handler
	SubmitLimiter  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	app.Get("/metrics", observability.MetricsHandler())

	auth := deps.AuthMiddleware
	if auth == nil {
		auth = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.EssayHandler != nil {
		essays := app.Group("/api/v2/essays", auth)
		deps.EssayHandler.Register(essays, deps.SubmitLimiter)
	}

	if deps.ProfileHandler != nil {
		student := app.Group("/api/v2/student", auth)
		deps.ProfileHandler.Register(student)
	}

	if deps.ReportHandler != nil {
		admin := app.Group("/api/v2/admin", auth)
		deps.ReportHandler.Register(admin)
	}
}
