// Command freeler is the terminal front-end of the freeler client core: it
// signs referral agents and CRM staff in, resolves where a session may go and
// keeps device-local preferences.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/client"
	"github.com/spec-kit/freeler-client/internal/config"
	"github.com/spec-kit/freeler-client/internal/events"
	"github.com/spec-kit/freeler-client/internal/lookup"
	"github.com/spec-kit/freeler-client/internal/observability"
	"github.com/spec-kit/freeler-client/internal/preferences"
	"github.com/spec-kit/freeler-client/internal/session"
	"github.com/spec-kit/freeler-client/internal/storage"
	"github.com/spec-kit/freeler-client/internal/worker"
)

func main() {
	os.Exit(start())
}

func start() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return exitFailure
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return exitFailure
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := storage.Open(*cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", zap.Error(err))
		return exitFailure
	}
	defer kv.Close() //nolint:errcheck

	a := newApp(appDeps{
		Config:        *cfg,
		KV:            kv,
		Authenticator: client.NewAuthClient(cfg.Auth.BaseURL, cfg.Auth.Timeout(), logger.Named("auth_client")),
		Logger:        logger,
	})
	a.finder = client.NewLookupClient(cfg.Lookup.BaseURL, cfg.Lookup.Timeout(), a.bearer, logger.Named("lookup_client"))

	return a.run(ctx, os.Args[1:])
}

// appDeps are the collaborators a CLI invocation runs against.
type appDeps struct {
	Config        config.Config
	KV            *storage.Store
	Authenticator session.Authenticator
	Finder        lookup.PersonFinder
	Logger        *zap.Logger
	Stdout        io.Writer
	Stderr        io.Writer
}

type app struct {
	cfg      config.Config
	sessions *session.Store
	prefs    *preferences.Preferences
	finder   lookup.PersonFinder
	events   events.Dispatcher
	metrics  *observability.Metrics
	logger   *zap.Logger
	stdout   io.Writer
	stderr   io.Writer
}

func newApp(deps appDeps) *app {
	logger := observability.OrNop(deps.Logger)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	worker.StartAuditWorker(dispatcher, logger, metrics)

	stdout, stderr := deps.Stdout, deps.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &app{
		cfg: deps.Config,
		sessions: session.NewStore(session.Dependencies{
			Auth:    deps.Authenticator,
			KV:      deps.KV,
			Events:  dispatcher,
			Metrics: metrics,
			Logger:  logger,
		}),
		prefs:   preferences.New(deps.KV, logger),
		finder:  deps.Finder,
		events:  dispatcher,
		metrics: metrics,
		logger:  logger,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// bearer returns the access token of the current session, if any.
func (a *app) bearer() string {
	if sess := a.sessions.CurrentSession(); sess != nil {
		return sess.AccessToken()
	}
	return ""
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) errorf(format string, args ...any) {
	fmt.Fprintf(a.stderr, format, args...)
}
