package presenter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/bridge"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/usecase/command"
)

var (
	_ command.Formatter   = (*ReplyFormatter)(nil)
	_ bridge.AuthNotifier = (*ReplyFormatter)(nil)
)

func TestObfuscate(t *testing.T) {
	assert.Equal(t, "Z\u200beta", Obfuscate("Zeta"))
	assert.Equal(t, "é\u200bric", Obfuscate("éric"))
	assert.Equal(t, "x\u200b", Obfuscate("x"))
	assert.Equal(t, "", Obfuscate(""))
}

func TestReplyFormatter_Render(t *testing.T) {
	f := NewReplyFormatter()
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		result command.Result
		want   string
	}{
		{
			name: "modlog ranking",
			result: &command.ModlogCountResult{Hours: 24, Counts: []command.ModeratorCount{
				{Moderator: "A", Count: 2}, {Moderator: "B", Count: 1},
			}},
			want: "<@alice>: Mod log actions in last 24 hour(s): *A\u200b*: 2 | *B\u200b*: 1",
		},
		{
			name:   "modlog empty",
			result: &command.ModlogCountResult{Hours: 1},
			want:   "<@alice>: Mod log actions in last 1 hour(s): none",
		},
		{
			name:   "modqueue",
			result: &command.QueueCountResult{Total: 3, Comments: 2, Posts: 1},
			want:   "<@alice>: There are currently 3 items in the modqueue (2 comments, 1 posts)",
		},
		{
			name:   "unmoderated",
			result: &command.UnmoderatedCountResult{Count: 7},
			want:   "<@alice>: There are currently 7 items in the unmodqueue",
		},
		{
			name: "link actions",
			result: &command.LinkActionsResult{LinkID: "abc", WindowHours: 25, Entries: []entity.ModLogEntry{
				{Moderator: "Zeta", Action: "removelink", CreatedAt: at},
			}},
			want: "<@alice>: Actions on abc in the last 25 hours: May 01 09:30 UTC removelink by Z\u200beta",
		},
		{
			name:   "link actions none",
			result: &command.LinkActionsResult{LinkID: "abc", WindowHours: 25},
			want:   "<@alice>: No removals or approvals of abc in the last 25 hours.",
		},
		{
			name:   "modmail with link",
			result: &command.ModmailResult{Permalink: "https://www.reddit.com/message/messages/m1"},
			want:   "<@alice>: Message sent! https://www.reddit.com/message/messages/m1",
		},
		{
			name:   "modmail placeholder",
			result: &command.ModmailResult{},
			want:   "<@alice>: Message sent! (Failed to return link...)",
		},
		{
			name:   "sticky",
			result: &command.StickyThreadsResult{Links: []string{"l1", "l2"}},
			want:   "<@alice>: Sticky threads: l1 | l2",
		},
		{
			name:   "full mods",
			result: &command.FullModsResult{Moderators: []string{"bob", "carol"}},
			want:   "<@alice>: Paging full mods: <@bob> | <@carol>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Render("alice", tt.result))
		})
	}
}

func TestReplyFormatter_Messages(t *testing.T) {
	f := NewReplyFormatter()

	assert.Equal(t, "(One moment...)", f.Working())
	assert.Equal(t, "Problem authenticating with reddit...", f.AuthProblem())
	assert.Equal(t, "<@alice>: bad input", f.Notice("alice", "bad input"))
	assert.Contains(t, f.Failure("alice", "~modque"), "~modque")
}
