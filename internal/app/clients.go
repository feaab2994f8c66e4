package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/reddit"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/slack"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/bridge"
)

// Clients holds all external integration clients
type Clients struct {
	Socket    *slack.SocketModeClient
	Slack     *slack.Client
	Poster    *bridge.RetryablePoster
	Refresher *reddit.CredentialRefresher
	Forum     *reddit.Client
}

func (app *Application) initializeClients(ctx context.Context) error {
	logger := &slogAdapter{logger: app.logger}
	metrics := app.telemetry.Metrics
	cfg := app.config

	socket, err := slack.NewSocketModeClient(slack.SocketModeConfig{
		BotToken:    cfg.Slack.BotToken,
		AppToken:    cfg.Slack.AppToken,
		ChannelID:   cfg.Slack.ChannelID,
		Debug:       cfg.Slack.Debug,
		ReadTimeout: cfg.Bridge.ReadTimeout,
		APIURL:      cfg.Slack.APIURL,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating socket mode client: %w", err)
	}
	slackAPI := socket.API()

	app.clients = &Clients{
		Socket: socket,
		Slack:  slackAPI,
		// Wrap with retry logic
		Poster: bridge.NewRetryablePoster(slackAPI, bridge.DefaultRetryPolicy(), logger),
	}

	refresher, err := reddit.NewCredentialRefresher(entity.Credential{
		AccessToken:  cfg.Forum.AccessToken,
		RefreshToken: cfg.Forum.RefreshToken,
		AppKey:       cfg.Forum.AppKey,
		AppSecret:    cfg.Forum.AppSecret,
	}, reddit.RefresherConfig{
		TokenURL:  cfg.Forum.TokenURL,
		UserAgent: cfg.Forum.UserAgent,
		Margin:    cfg.Forum.RefreshMargin,
		Timeout:   cfg.Forum.RequestTimeout,
	}, metrics, logger)
	if err != nil {
		return fmt.Errorf("creating credential refresher: %w", err)
	}

	// The bridge cannot serve any command without a working credential.
	if !refresher.Refresh(ctx) {
		return errors.New("initial forum credential refresh failed")
	}
	app.clients.Refresher = refresher

	forum, err := reddit.NewClient(reddit.ClientConfig{
		APIURL:    cfg.Forum.APIURL,
		Community: cfg.Forum.Community,
		UserAgent: cfg.Forum.UserAgent,
		Timeout:   cfg.Forum.RequestTimeout,
	}, refresher, metrics, logger)
	if err != nil {
		return fmt.Errorf("creating forum client: %w", err)
	}
	app.clients.Forum = forum

	app.logger.Info("forum integration enabled",
		"community", cfg.Forum.Community,
		"staff_community", cfg.Forum.StaffCommunity,
	)
	return nil
}
