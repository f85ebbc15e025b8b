package entity

import "time"

// Mode is the closed set of conversational states a session can be in.
// The only legal mutation path is the conversation use case's transition
// function; nothing else writes Mode.
type Mode string

const (
	// ModeBot autonomous search mode (default)
	ModeBot Mode = "bot"

	// ModeHuman handed off to an operator; bot logic suspended
	ModeHuman Mode = "human"

	// ModeMenu collecting free-text feedback / error reports
	ModeMenu Mode = "menu_mode"

	// Mechanic survey: priority -> shop name -> bot
	ModeWaitingMechanicPriority Mode = "waiting_mechanic_priority"
	ModeWaitingMechanicName     Mode = "waiting_mechanic_name"

	// Seller survey: name -> location -> logistics -> bot
	ModeWaitingSellerName     Mode = "waiting_seller_name"
	ModeWaitingSellerLocation Mode = "waiting_seller_location"
	ModeWaitingSellerLogistics Mode = "waiting_seller_logistics"

	// Buyer survey: location -> urgency -> bot
	ModeWaitingBuyerLocation Mode = "waiting_buyer_location"
	ModeWaitingBuyerUrgency  Mode = "waiting_buyer_urgency"
)

// InSurvey reports whether the mode is one of the linear survey sub-states.
func (m Mode) InSurvey() bool {
	switch m {
	case ModeWaitingMechanicPriority, ModeWaitingMechanicName,
		ModeWaitingSellerName, ModeWaitingSellerLocation, ModeWaitingSellerLogistics,
		ModeWaitingBuyerLocation, ModeWaitingBuyerUrgency:
		return true
	}
	return false
}

// UserKind classifies a user once a lead survey completes.
type UserKind string

const (
	KindUnknown  UserKind = "unknown"
	KindMechanic UserKind = "mechanic"
	KindSeller   UserKind = "seller"
	KindBuyer    UserKind = "buyer"
)

// Session is the persistent per-identity conversational state. One row per
// phone number; created on first contact, never hard-deleted.
type Session struct {
	Identity     string
	Mode         Mode
	UserKind     UserKind
	LastActiveAt time.Time
	LocationHint string

	// Metadata holds in-progress survey answers keyed by question
	// (priority, shop_name, seller_name, location, logistics, urgency).
	// Answers committed at completed steps survive a cancel.
	Metadata map[string]string
}

// NewSession returns a fresh bot-mode session for an unseen identity.
func NewSession(identity string, now time.Time) *Session {
	return &Session{
		Identity:     identity,
		Mode:         ModeBot,
		UserKind:     KindUnknown,
		LastActiveAt: now,
		Metadata:     make(map[string]string),
	}
}

// MechanicProfile is the validated result of the mechanic survey.
type MechanicProfile struct {
	Priority string
	ShopName string
}

// SellerProfile is the validated result of the seller survey.
type SellerProfile struct {
	Name      string
	Location  string
	Logistics string
}

// BuyerProfile is the validated result of the buyer survey.
type BuyerProfile struct {
	Location string
	Urgency  string
}

// Lead is the tagged union written when a survey completes. Exactly one
// profile pointer is non-nil and it matches Kind.
type Lead struct {
	ID       string
	Identity string
	Kind     UserKind

	Mechanic *MechanicProfile
	Seller   *SellerProfile
	Buyer    *BuyerProfile
}
