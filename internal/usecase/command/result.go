package command

import (
	"context"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

// Request is one parsed command invocation.
type Request struct {
	RequesterID   string
	RequesterName string
	ChannelID     string
	Args          Args

	// Ack posts the "working" acknowledgement. Handlers call it right before their
	// first forum query.
	Ack func(ctx context.Context)
}

func (r Request) acknowledge(ctx context.Context) {
	if r.Ack != nil {
		r.Ack(ctx)
	}
}

// Handler executes one command.
type Handler interface {
	Handle(ctx context.Context, req Request) (Result, error)
}

// Result is the aggregated outcome of a command, rendered by a Formatter.
type Result interface {
	isResult()
}

// ModeratorCount is one row of the mod log ranking.
type ModeratorCount struct {
	Moderator string
	Count     int
}

// ModlogCountResult ranks moderators by action count.
type ModlogCountResult struct {
	Hours  int
	Counts []ModeratorCount
}

// QueueCountResult splits the modqueue into comments and posts.
type QueueCountResult struct {
	Total    int
	Comments int
	Posts    int
}

// UnmoderatedCountResult is the size of the unmoderated queue.
type UnmoderatedCountResult struct {
	Count int
}

// LinkActionsResult lists link removals and approvals, earliest first.
type LinkActionsResult struct {
	LinkID      string
	WindowHours int
	Entries     []entity.ModLogEntry
}

// ModmailResult reports a relayed message. Permalink is empty when the sent message
// could not be found again.
type ModmailResult struct {
	Permalink string
}

// StickyThreadsResult lists the pinned threads.
type StickyThreadsResult struct {
	Links []string
}

// FullModsResult lists the staff moderators to page.
type FullModsResult struct {
	Moderators []string
}

func (*ModlogCountResult) isResult()      {}
func (*QueueCountResult) isResult()       {}
func (*UnmoderatedCountResult) isResult() {}
func (*LinkActionsResult) isResult()      {}
func (*ModmailResult) isResult()          {}
func (*StickyThreadsResult) isResult()    {}
func (*FullModsResult) isResult()         {}
