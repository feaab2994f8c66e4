package entity

import (
	"strings"
	"time"
)

// Reddit "thing" kinds.
const (
	KindComment = "t1"
	KindLink    = "t3"
	KindMessage = "t4"
)

// ModLogEntry is one moderation log action.
type ModLogEntry struct {
	Moderator string
	Action    string
	// TargetID is the fullname of the acted-on thing (e.g. "t3_abc123"); empty when
	// the action has no target.
	TargetID  string
	CreatedAt time.Time
}

// Age returns how long ago the entry was created relative to now.
func (e ModLogEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// TargetsLink reports whether the entry targets the submission with the given base36 ID.
func (e ModLogEntry) TargetsLink(linkID string) bool {
	if e.TargetID == "" || linkID == "" {
		return false
	}
	return strings.TrimPrefix(e.TargetID, KindLink+"_") == linkID
}

// QueueItem is an item waiting in a moderation queue.
type QueueItem struct {
	Kind string
	ID   string
}

// IsComment reports whether the queued item is a comment rather than a post.
func (q QueueItem) IsComment() bool {
	return q.Kind == KindComment
}

// Submission is a post in the community listing.
type Submission struct {
	ID        string
	Title     string
	Permalink string
	Stickied  bool
}

// MailMessage is a moderator mail item.
type MailMessage struct {
	ID   string
	Body string
}
