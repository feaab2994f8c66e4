package app

import (
	"context"
	"fmt"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/adapter/presenter"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/scheduler"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/audit"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/bridge"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/command"
)

const retentionJobName = "audit-retention"

func (app *Application) initializeUseCases(ctx context.Context) error {
	logger := &slogAdapter{logger: app.logger}
	metrics := app.telemetry.Metrics
	cfg := app.config
	forum := app.clients.Forum

	// The directory is read once; members who join later stay unknown until restart.
	directory, err := app.clients.Slack.Directory(ctx)
	if err != nil {
		return fmt.Errorf("loading chat directory: %w", err)
	}
	identities := bridge.NewIdentityCache(directory)
	app.logger.Info("identity cache loaded", "members", identities.Len())

	routes := command.Routes()
	registrations := []command.Registration{
		{Route: routes[command.NameModlogCount], Handler: command.NewModlogCountUseCase(forum, cfg.Forum.ExcludedModerators)},
		{Route: routes[command.NameQueueCount], Handler: command.NewQueueCountUseCase(forum)},
		{Route: routes[command.NameUnmoderatedCount], Handler: command.NewUnmoderatedCountUseCase(forum)},
		{Route: routes[command.NameActionsOnLink], Handler: command.NewActionsOnLinkUseCase(forum)},
		{Route: routes[command.NameModmailRelay], Handler: command.NewModmailRelayUseCase(forum, logger)},
		{Route: routes[command.NameStickyThreads], Handler: command.NewStickyThreadsUseCase(forum)},
	}
	if cfg.HasStaffCommunity() {
		registrations = append(registrations, command.Registration{
			Route:   routes[command.NameFullMods],
			Handler: command.NewFullModsUseCase(forum, cfg.Forum.StaffCommunity, cfg.Forum.StaffExcluded),
		})
	}

	formatter := presenter.NewReplyFormatter()
	dispatcher, err := command.NewDispatcher(registrations, command.DispatcherDeps{
		Identities:  identities,
		Poster:      app.clients.Poster,
		Formatter:   formatter,
		Invocations: app.invocations,
		Metrics:     metrics,
		Tracer:      app.telemetry.Tracer("modlog-bridge/command"),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("building dispatcher: %w", err)
	}

	app.loop = bridge.NewEventLoop(
		app.clients.Refresher,
		app.clients.Socket,
		dispatcher,
		app.clients.Poster,
		formatter,
		metrics,
		logger,
	)
	app.loop.SetPacing(cfg.Bridge.PacingInterval)

	app.pruner = audit.NewPruneUseCase(app.invocations, cfg.Storage.Retention, metrics, logger)
	sched, err := scheduler.New(app.logger)
	if err != nil {
		return err
	}
	if err := sched.AddIntervalJob(ctx, retentionJobName, cfg.Storage.RetentionInterval, app.pruner.Run); err != nil {
		return err
	}
	app.scheduler = sched

	return nil
}
