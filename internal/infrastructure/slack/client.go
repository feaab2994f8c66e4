package slack

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/slack-go/slack"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

// Client wraps the Slack Web API with the operations the bridge needs.
type Client struct {
	api *slack.Client
}

// NewClient creates a new Slack client. apiURL overrides the API endpoint in tests.
func NewClient(botToken string, apiURL ...string) *Client {
	var api *slack.Client
	if len(apiURL) > 0 && apiURL[0] != "" {
		api = slack.New(botToken, slack.OptionAPIURL(apiURL[0]))
	} else {
		api = slack.New(botToken)
	}

	return &Client{api: api}
}

// newClientFromAPI wraps an existing API client.
func newClientFromAPI(api *slack.Client) *Client {
	return &Client{api: api}
}

// PostMessage posts plain text to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return categorizeSlackError(err, "posting slack message")
	}
	return nil
}

// Directory returns a snapshot of every workspace member. Deleted accounts are
// included so that old IDs still resolve.
func (c *Client) Directory(ctx context.Context) ([]entity.Identity, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, categorizeSlackError(err, "listing slack users")
	}

	identities := make([]entity.Identity, 0, len(users))
	for _, u := range users {
		identities = append(identities, entity.Identity{ID: u.ID, DisplayName: u.Name})
	}
	return identities, nil
}

// Ping checks that the bot token is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.AuthTestContext(ctx); err != nil {
		return categorizeSlackError(err, "slack auth test")
	}
	return nil
}

// categorizeSlackError wraps Slack API errors as transient or permanent domain errors.
func categorizeSlackError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: network error", operation),
			err,
		)
	}

	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: rate limited, retry after %s", operation, rateErr.RetryAfter),
			err,
		)
	}

	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		switch slackErr.Err {
		case "rate_limited", "ratelimited":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: rate limited", operation),
				err,
			)

		case "internal_error", "fatal_error", "service_unavailable", "request_timeout":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: slack server error", operation),
				err,
			)

		default:
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: context timeout", operation),
			err,
		)
	}

	return domainerrors.NewPermanentError(
		fmt.Sprintf("%s: %v", operation, err),
		err,
	)
}
