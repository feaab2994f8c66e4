package command

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

const (
	// MaxModmailRunes caps relayed message bodies.
	MaxModmailRunes = 1000

	recentModmailScan = 3
	modmailKeyRunes   = 25
)

// MessagePermalink returns the web link of a private message.
func MessagePermalink(id string) string {
	return "https://www.reddit.com/message/messages/" + id
}

// ModmailRelayUseCase sends a chat message to the community's moderator mail.
type ModmailRelayUseCase struct {
	mailer Mailer
	logger Logger
}

// NewModmailRelayUseCase creates the ~modmail handler.
func NewModmailRelayUseCase(mailer Mailer, logger Logger) *ModmailRelayUseCase {
	return &ModmailRelayUseCase{mailer: mailer, logger: logger}
}

// Handle sends the body and tries to find the sent message among the most recent
// moderator mail to link it. A miss still counts as a successful relay.
func (uc *ModmailRelayUseCase) Handle(ctx context.Context, req Request) (Result, error) {
	body := req.Args.Body
	if n := utf8.RuneCountInString(body); n > MaxModmailRunes {
		return nil, domainerrors.NewUserError("Too long! Modmail messages are capped at %d characters (got %d).", MaxModmailRunes, n)
	}

	req.acknowledge(ctx)

	subject := fmt.Sprintf("%s writes via Slack:", req.RequesterName)
	if err := uc.mailer.SendModmail(ctx, subject, body); err != nil {
		return nil, fmt.Errorf("sending modmail: %w", err)
	}

	return &ModmailResult{Permalink: uc.findSent(ctx, body)}, nil
}

func (uc *ModmailRelayUseCase) findSent(ctx context.Context, body string) string {
	recent, err := uc.mailer.RecentModmail(ctx, recentModmailScan)
	if err != nil {
		uc.logger.Warn("Failed to list recent modmail", "error", err)
		return ""
	}

	key := truncateRunes(body, modmailKeyRunes)
	for _, msg := range recent {
		if strings.Contains(msg.Body, key) {
			return MessagePermalink(msg.ID)
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
