package usecase

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EventWindow runs the two intake guards: a staleness cutoff on the
// provider timestamp and a bounded most-recent-N window over provider
// event ids. A rejected event must produce no session mutation and no
// outbound reply; callers simply drop it.
type EventWindow struct {
	staleness time.Duration
	seen      *lru.Cache[string, struct{}]
}

// NewEventWindow sizes the id window and fixes the staleness cutoff.
func NewEventWindow(size int, staleness time.Duration) (*EventWindow, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &EventWindow{staleness: staleness, seen: cache}, nil
}

// Admit reports whether the event may reach the session layer, and
// records admitted ids. Stale events are not recorded; a later duplicate
// of a stale event is rejected by the staleness guard again anyway.
func (w *EventWindow) Admit(providerID string, eventTime, now time.Time) bool {
	if now.Sub(eventTime) > w.staleness {
		return false
	}
	if providerID != "" {
		if _, dup := w.seen.Get(providerID); dup {
			return false
		}
		w.seen.Add(providerID, struct{}{})
	}
	return true
}
