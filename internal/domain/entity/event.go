package entity

import "time"

// EventKind discriminates inbound message types from the channel.
type EventKind string

const (
	EventText        EventKind = "text"
	EventListReply   EventKind = "list_reply"
	EventButtonReply EventKind = "button_reply"
)

// InboundEvent is one normalized delivery from the messaging channel.
// Text is the content string regardless of kind: the raw body for text
// events, the selected title for interactive events. SelectionID carries
// the row/button id for interactive events and is empty otherwise.
type InboundEvent struct {
	Identity    string
	Kind        EventKind
	Text        string
	SelectionID string
	ProviderID  string
	Timestamp   time.Time
}
