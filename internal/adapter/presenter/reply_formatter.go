package presenter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/command"
)

const (
	// ZeroWidthSpace keeps Slack from turning a moderator name into a mention.
	ZeroWidthSpace = "\u200b"

	workingMessage     = "(One moment...)"
	authProblemMessage = "Problem authenticating with reddit..."
	missingLinkMessage = "(Failed to return link...)"
	separator          = " | "
)

// ReplyFormatter renders command results as plain Slack text.
type ReplyFormatter struct{}

// NewReplyFormatter creates a new reply formatter.
func NewReplyFormatter() *ReplyFormatter {
	return &ReplyFormatter{}
}

// Ping returns the mention token for a display name.
func Ping(name string) string {
	return "<@" + name + ">"
}

// Obfuscate inserts a zero-width space after the first character of name.
func Obfuscate(name string) string {
	if name == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(name)
	return name[:size] + ZeroWidthSpace + name[size:]
}

// Working is the acknowledgement posted before slow forum queries.
func (f *ReplyFormatter) Working() string {
	return workingMessage
}

// AuthProblem is posted when the forum credential cannot be recovered.
func (f *ReplyFormatter) AuthProblem() string {
	return authProblemMessage
}

// Notice addresses a user-facing message to the requester.
func (f *ReplyFormatter) Notice(requester, message string) string {
	return addressed(requester, message)
}

// Failure reports that a command failed unexpectedly.
func (f *ReplyFormatter) Failure(requester, command string) string {
	return addressed(requester, fmt.Sprintf("Something went wrong running %s. Try again in a bit.", command))
}

// Render formats a command result addressed to the requester.
func (f *ReplyFormatter) Render(requester string, result command.Result) string {
	return addressed(requester, f.body(result))
}

func (f *ReplyFormatter) body(result command.Result) string {
	switch r := result.(type) {
	case *command.ModlogCountResult:
		return f.modlogCount(r)

	case *command.QueueCountResult:
		return fmt.Sprintf("There are currently %d items in the modqueue (%d comments, %d posts)",
			r.Total, r.Comments, r.Posts)

	case *command.UnmoderatedCountResult:
		return fmt.Sprintf("There are currently %d items in the unmodqueue", r.Count)

	case *command.LinkActionsResult:
		return f.linkActions(r)

	case *command.ModmailResult:
		link := r.Permalink
		if link == "" {
			link = missingLinkMessage
		}
		return "Message sent! " + link

	case *command.StickyThreadsResult:
		if len(r.Links) == 0 {
			return "There are no sticky threads right now."
		}
		return "Sticky threads: " + strings.Join(r.Links, separator)

	case *command.FullModsResult:
		if len(r.Moderators) == 0 {
			return "No full mods to page."
		}
		pings := make([]string, len(r.Moderators))
		for i, m := range r.Moderators {
			pings[i] = Ping(m)
		}
		return "Paging full mods: " + strings.Join(pings, separator)

	default:
		return "Done."
	}
}

func (f *ReplyFormatter) modlogCount(r *command.ModlogCountResult) string {
	header := fmt.Sprintf("Mod log actions in last %d hour(s): ", r.Hours)
	if len(r.Counts) == 0 {
		return header + "none"
	}

	parts := make([]string, len(r.Counts))
	for i, c := range r.Counts {
		parts[i] = fmt.Sprintf("*%s*: %d", Obfuscate(c.Moderator), c.Count)
	}
	return header + strings.Join(parts, separator)
}

func (f *ReplyFormatter) linkActions(r *command.LinkActionsResult) string {
	if len(r.Entries) == 0 {
		return fmt.Sprintf("No removals or approvals of %s in the last %d hours.", r.LinkID, r.WindowHours)
	}

	parts := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		parts[i] = fmt.Sprintf("%s %s by %s",
			e.CreatedAt.UTC().Format("Jan 02 15:04 UTC"), e.Action, Obfuscate(e.Moderator))
	}
	return fmt.Sprintf("Actions on %s in the last %d hours: ", r.LinkID, r.WindowHours) +
		strings.Join(parts, separator)
}

func addressed(requester, text string) string {
	return Ping(requester) + ": " + text
}
