package command

import (
	"context"
	"iter"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

// ModLogSource streams the community moderation log, newest entry first.
// Consumers stop pulling as soon as they have seen enough; the source must not
// fetch pages that are never consumed.
type ModLogSource interface {
	ModLog(ctx context.Context) iter.Seq2[entity.ModLogEntry, error]
}

// QueueSource streams the moderation queues.
type QueueSource interface {
	ModQueue(ctx context.Context) iter.Seq2[entity.QueueItem, error]
	Unmoderated(ctx context.Context) iter.Seq2[entity.QueueItem, error]
}

// ListingSource reads the community's trending listing.
type ListingSource interface {
	Hot(ctx context.Context, limit int) ([]entity.Submission, error)
}

// Mailer sends and lists moderator mail.
type Mailer interface {
	SendModmail(ctx context.Context, subject, body string) error
	RecentModmail(ctx context.Context, limit int) ([]entity.MailMessage, error)
}

// ModeratorDirectory lists the moderators of a community.
type ModeratorDirectory interface {
	Moderators(ctx context.Context, community string) ([]string, error)
}

// ChatPoster posts a text message to a chat channel.
type ChatPoster interface {
	PostMessage(ctx context.Context, channelID, text string) error
}

// IdentityLookup resolves a chat user ID to a display name.
type IdentityLookup interface {
	Lookup(userID string) (string, bool)
}

// Formatter renders replies for the chat channel.
type Formatter interface {
	Working() string
	Render(requester string, result Result) string
	Notice(requester, message string) string
	Failure(requester, command string) string
}

// Metrics records command outcomes.
type Metrics interface {
	RecordCommand(ctx context.Context, command, outcome string, duration time.Duration)
}

// Logger defines the contract for logging within use cases.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
