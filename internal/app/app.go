package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/observability"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/scheduler"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/server"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/audit"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/bridge"
)

// Version is reported in telemetry resources and startup logs.
var Version = "dev"

// Application holds all application dependencies and lifecycle
type Application struct {
	config        *config.Config
	configManager *config.ConfigManager
	logger        *slog.Logger
	levelVar      *slog.LevelVar
	telemetry     *observability.Telemetry

	// Storage
	invocations repository.InvocationRepository
	dbPinger    pinger
	dbCloser    io.Closer

	// Infrastructure clients
	clients *Clients

	// Use cases
	loop      *bridge.EventLoop
	pruner    *audit.PruneUseCase
	scheduler *scheduler.Scheduler

	// HTTP layer
	handlers *server.Handlers
	server   *server.Server
}

type pinger interface {
	Ping(ctx context.Context) error
}

// New creates a new Application. Startup talks to both platforms: the forum
// credential must refresh and the Slack directory must load, or New fails.
func New(ctx context.Context, configPath string, logOutput io.Writer) (*Application, error) {
	app := &Application{}

	if err := app.bootstrap(ctx, configPath, logOutput); err != nil {
		app.closeStorage()
		return nil, err
	}

	return app, nil
}

// Start runs the chat session, the event loop, the scheduler and the ops server
// until ctx is cancelled or one of them fails.
func (app *Application) Start(ctx context.Context) error {
	app.logger.Info("starting modlog-bridge",
		"version", Version,
		"community", app.config.Forum.Community,
		"channel", app.config.Slack.ChannelID,
		"port", app.config.Server.Port,
	)

	if app.configManager != nil {
		app.configManager.Watch()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.clients.Socket.Run(ctx) })
	g.Go(func() error { return app.loop.Run(ctx) })
	g.Go(func() error { return app.scheduler.Run(ctx) })
	g.Go(func() error { return app.server.Run(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down modlog-bridge")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Error("failed to shutdown telemetry", "error", err)
		}
	}

	if err := app.closeStorage(); err != nil {
		app.logger.Error("failed to close database", "error", err)
		return err
	}

	app.logger.Info("modlog-bridge stopped")
	return nil
}

func (app *Application) closeStorage() error {
	if app.dbCloser == nil {
		return nil
	}
	err := app.dbCloser.Close()
	app.dbCloser = nil
	return err
}
