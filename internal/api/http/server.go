package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/api/http/handlers"
	"github.com/spec-kit/freeler-client/internal/auth"
	"github.com/spec-kit/freeler-client/internal/config"
	"github.com/spec-kit/freeler-client/internal/observability"
	"github.com/spec-kit/freeler-client/internal/repository"
	"github.com/spec-kit/freeler-client/internal/service"
)

// ServerDeps carries the repositories and ambient collaborators of the dev auth server.
type ServerDeps struct {
	Agents  repository.AgentRepository
	Staff   repository.StaffRepository
	Persons repository.PersonRepository
	Health  map[string]handlers.Pinger
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewApp builds the fiber application serving the auth and lookup contracts.
func NewApp(cfg config.Config, deps ServerDeps) *fiber.App {
	logger := observability.OrNop(deps.Logger)

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		AgentRepo: deps.Agents,
		StaffRepo: deps.Staff,
		Logger:    logger.Named("auth"),
	})
	lookupService := service.NewLookupService(deps.Persons)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), deps.Agents, deps.Staff)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, cfg.Stub.RequestTimeout())

	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Health),
		Auth:           handlers.NewAuthHandler(authService),
		Lookup:         handlers.NewLookupHandler(lookupService),
		AuthMiddleware: authMiddleware,
	})
	return app
}
