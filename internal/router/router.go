package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-ide-api/internal/config"
	"github.com/noah-isme/gema-ide-api/internal/handler"
	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProblemHandler       *handler.ProblemHandler
	IDEHandler           *handler.IDEHandler
	ConsoleSocketHandler *handler.ConsoleSocketHandler
	VerdictHandler       *handler.VerdictHandler
	AuthHandler          *handler.AuthHandler
	AdminProblemHandler  *handler.AdminProblemHandler
	SeedHandler          *handler.SeedHandler
	JWTMiddleware        fiber.Handler
	AdminResolver        middleware.AdminResolver
	RunLimiter           fiber.Handler
	HealthProbes         []handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	metrics := observability.MetricsHandler()
	if cfg.IsProduction() {
		app.Get("/metrics", jwtMiddleware, middleware.WithAuth(metrics, middleware.AuthOptions{
			Role:  middleware.AuthRoleAdmin,
			Admin: deps.AdminResolver,
		}))
	} else {
		app.Get("/metrics", metrics)
	}

	v2 := app.Group("/api/v2")

	// Seeding is guarded by its own token rather than a user session.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(v2.Group("/seed"))
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(v2, jwtMiddleware)
	}

	// IDE: catalogue, session, console socket and verdict stream
	ide := v2.Group("/ide", jwtMiddleware)
	if deps.ProblemHandler != nil {
		deps.ProblemHandler.Register(ide)
	}
	if deps.IDEHandler != nil {
		var guards []fiber.Handler
		if deps.RunLimiter != nil {
			guards = append(guards, deps.RunLimiter)
		}
		deps.IDEHandler.Register(ide, guards...)
	}
	if deps.ConsoleSocketHandler != nil {
		deps.ConsoleSocketHandler.Register(ide)
	}
	if deps.VerdictHandler != nil {
		deps.VerdictHandler.Register(ide)
	}

	// Admin content management
	if deps.AdminProblemHandler != nil {
		admin := v2.Group("/admin", jwtMiddleware, middleware.RequireAdmin(deps.AdminResolver))
		deps.AdminProblemHandler.Register(admin)
	}
}
