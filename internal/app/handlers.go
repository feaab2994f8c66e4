package app

import (
	"github.com/qj0r9j0vc2/modlog-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/server"
)

func (app *Application) initializeHandlers() {
	// Create readiness handler with dependency checkers
	readyHandler := handler.NewReadyHandler()
	readyHandler.AddChecker("slack", app.clients.Socket)
	readyHandler.AddChecker("forum", app.clients.Refresher)
	if app.dbPinger != nil {
		readyHandler.AddChecker("storage", app.dbPinger)
	}

	app.handlers = &server.Handlers{
		Health:      handler.NewHealthHandler(),
		Ready:       readyHandler,
		Metrics:     handler.NewMetricsHandler(app.telemetry.Registry, app.logger),
		Invocations: handler.NewInvocationsHandler(app.invocations, app.logger),
	}
	if app.configManager != nil {
		app.handlers.Reload = handler.NewReloadHandler(app.configManager, config.ErrRequiresRestart, app.logger)
	}
}

func (app *Application) setupServer() {
	router := server.NewRouter(app.handlers, app.telemetry.Metrics, app.config.Server.RequestTimeout, app.logger)
	app.server = server.New(app.config.Server, router, app.logger)
}
