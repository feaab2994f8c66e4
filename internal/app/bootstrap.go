package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/config"
)

func (app *Application) bootstrap(ctx context.Context, configPath string, logOutput io.Writer) error {
	// 1. Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	app.config = cfg

	// 2. Setup logger
	app.logger, app.levelVar = newLogger(logOutput, cfg.Logging.Level, cfg.Logging.Format)

	// 3. Setup telemetry (OpenTelemetry)
	if err := app.setupTelemetry(); err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	// 4. Initialize storage layer
	if err := app.initializeStorage(ctx); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	// 5. Initialize infrastructure clients
	if err := app.initializeClients(ctx); err != nil {
		return fmt.Errorf("initializing clients: %w", err)
	}

	// 6. Initialize use cases
	if err := app.initializeUseCases(ctx); err != nil {
		return fmt.Errorf("initializing use cases: %w", err)
	}

	// 7. Setup config manager with reload callback
	if err := app.setupConfigManager(configPath); err != nil {
		return fmt.Errorf("setting up config manager: %w", err)
	}

	// 8. Initialize HTTP handlers and server
	app.initializeHandlers()
	app.setupServer()

	return nil
}

// setupConfigManager enables hot reload when the configuration comes from a file.
func (app *Application) setupConfigManager(configPath string) error {
	if configPath == "" {
		return nil
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		app.logger.Info("config file not found, hot reload disabled", "path", configPath)
		return nil
	}

	cm, err := config.NewConfigManager(configPath, app.config, app.logger)
	if err != nil {
		return err
	}
	cm.OnReload(app.applyReload)
	app.configManager = cm
	return nil
}

// applyReload pushes hot-reloadable settings into the running components.
func (app *Application) applyReload(old, updated *config.Config) {
	if old.Logging.Level != updated.Logging.Level {
		app.levelVar.Set(parseLevel(updated.Logging.Level))
		app.logger.Info("log level changed", "from", old.Logging.Level, "to", updated.Logging.Level)
	}
	if old.Bridge.PacingInterval != updated.Bridge.PacingInterval {
		app.loop.SetPacing(updated.Bridge.PacingInterval)
		app.logger.Info("pacing interval changed",
			"from", old.Bridge.PacingInterval.String(),
			"to", updated.Bridge.PacingInterval.String())
	}
}
