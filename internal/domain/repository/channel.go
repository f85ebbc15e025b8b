package repository

import "context"

// ListRow is one selectable entry in a single-choice list message.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// Button is one action button (id + title).
type Button struct {
	ID    string
	Title string
}

// Messenger is the outbound messaging channel. Implementations own the
// wire format; callers treat these as opaque capabilities.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	SendList(ctx context.Context, to, body, buttonLabel, sectionTitle string, rows []ListRow) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
}

// MirrorTier controls how loudly a mirror entry lands in the operator feed.
type MirrorTier int

const (
	// TierSilent no notification; routine shadowing
	TierSilent MirrorTier = iota
	// TierNormal regular message
	TierNormal
	// TierUrgent notifies and reopens the conversation topic
	TierUrgent
)

// OperatorLog is the one-way human-visible mirror feed. Every bot action
// and user input is shadowed here for oversight and manual takeover.
type OperatorLog interface {
	Log(ctx context.Context, identity, text string, tier MirrorTier) error
}
