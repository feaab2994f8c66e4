package entity

import "time"

// EventTypeMessage is the only chat event type the bridge acts on.
const EventTypeMessage = "message"

// ChatEvent is a single event read from the chat transport.
type ChatEvent struct {
	Type      string
	SubType   string
	ChannelID string
	SenderID  string
	Text      string
	Timestamp time.Time
}

// IsActionable reports whether the event is a plain user message with text.
// Edits, joins and bot messages carry a subtype and are ignored.
func (e *ChatEvent) IsActionable() bool {
	if e == nil {
		return false
	}
	return e.Type == EventTypeMessage && e.SubType == "" && e.Text != ""
}

// Identity maps a chat user ID to the name used when pinging them.
type Identity struct {
	ID          string
	DisplayName string
}
