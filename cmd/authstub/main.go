// Command authstub serves the authentication and national ID lookup
// contracts the freeler client consumes. Without POSTGRES_DSN it runs on
// seeded in-memory tables.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/freeler-client/internal/api/http"
	"github.com/spec-kit/freeler-client/internal/api/http/handlers"
	"github.com/spec-kit/freeler-client/internal/config"
	"github.com/spec-kit/freeler-client/internal/observability"
	"github.com/spec-kit/freeler-client/internal/persistence"
	"github.com/spec-kit/freeler-client/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.Connect(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	deps := httptransport.ServerDeps{
		Health:  map[string]handlers.Pinger{},
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}

	if pg != nil {
		deps.Agents, deps.Staff, deps.Persons = pg.Repositories()
		deps.Health["postgres"] = pg
	} else {
		mem := repository.NewMemory()
		if err := seedDemo(mem, cfg.Stub.BcryptCost); err != nil {
			logger.Fatal("failed to seed demo accounts", zap.Error(err))
		}
		logger.Info("serving seeded in-memory accounts", zap.String("password", demoPassword))
		deps.Agents = mem.Agents()
		deps.Staff = mem.Staff()
		deps.Persons = mem.Persons()
	}

	app := httptransport.NewApp(*cfg, deps)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Stub.Addr()))
		if err := app.Listen(cfg.Stub.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
