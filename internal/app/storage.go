package app

import (
	"context"
	"fmt"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/persistence/memory"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/persistence/mysql"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/persistence/sqlite"
)

func (app *Application) initializeStorage(ctx context.Context) error {
	switch app.config.Storage.Type {
	case "mysql":
		repos, db, err := mysql.NewRepositories(ctx, &app.config.Storage.MySQL)
		if err != nil {
			return fmt.Errorf("mysql init: %w", err)
		}
		app.invocations = repos.Invocation
		app.dbPinger = db
		app.dbCloser = db

		app.logger.Info("MySQL storage initialized",
			"host", app.config.Storage.MySQL.Host,
			"database", app.config.Storage.MySQL.Database,
			"pool_max_open", app.config.Storage.MySQL.Pool.MaxOpenConns,
		)

	case "sqlite":
		repos, db, err := sqlite.NewRepositories(ctx, app.config.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite init: %w", err)
		}
		app.invocations = repos.Invocation
		app.dbPinger = db
		app.dbCloser = db

		app.logger.Info("SQLite storage initialized",
			"path", app.config.Storage.SQLite.Path,
		)

	case "memory", "":
		repo := memory.NewInvocationRepository()
		app.invocations = repo
		app.dbPinger = repo

		app.logger.Info("in-memory storage initialized")

	default:
		return fmt.Errorf("unknown storage type: %s", app.config.Storage.Type)
	}

	return nil
}
