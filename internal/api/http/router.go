package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/freeler-client/internal/api/http/handlers"
	"github.com/spec-kit/freeler-client/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Lookup         *handlers.LookupHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, auth.RequireAnySession(), cfg.Auth.Logout)

	// National ID lookups are used on the public sign-up form.
	app.Get("/lookup/national-id/:id", cfg.Lookup.NationalID)
}
