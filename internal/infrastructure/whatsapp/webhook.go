package whatsapp

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// Meta webhook payload shapes, trimmed to the fields the engine reads.

type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	Messages []webhookMessage `json:"messages"`
}

type webhookMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *webhookText        `json:"text,omitempty"`
	Interactive *webhookInteractive `json:"interactive,omitempty"`
}

type webhookText struct {
	Body string `json:"body"`
}

type webhookInteractive struct {
	Type        string            `json:"type"`
	ListReply   *webhookSelection `json:"list_reply,omitempty"`
	ButtonReply *webhookSelection `json:"button_reply,omitempty"`
}

type webhookSelection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ParseEvents decodes one webhook delivery into normalized inbound
// events. Unknown message types are skipped; the content string is the
// raw body for text and the selected title for interactive replies.
func ParseEvents(body []byte) ([]entity.InboundEvent, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var events []entity.InboundEvent
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				ev, ok := normalizeMessage(msg)
				if !ok {
					continue
				}
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

func normalizeMessage(msg webhookMessage) (entity.InboundEvent, bool) {
	ev := entity.InboundEvent{
		Identity:   msg.From,
		ProviderID: msg.ID,
		Timestamp:  parseProviderTimestamp(msg.Timestamp),
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return ev, false
		}
		ev.Kind = entity.EventText
		ev.Text = strings.TrimSpace(msg.Text.Body)
	case "interactive":
		if msg.Interactive == nil {
			return ev, false
		}
		switch {
		case msg.Interactive.ListReply != nil:
			ev.Kind = entity.EventListReply
			ev.Text = msg.Interactive.ListReply.Title
			ev.SelectionID = msg.Interactive.ListReply.ID
		case msg.Interactive.ButtonReply != nil:
			ev.Kind = entity.EventButtonReply
			ev.Text = msg.Interactive.ButtonReply.Title
			ev.SelectionID = msg.Interactive.ButtonReply.ID
		default:
			return ev, false
		}
	default:
		return ev, false
	}
	return ev, true
}

// parseProviderTimestamp reads Meta's unix-seconds string; a missing or
// bad value falls back to now so the staleness guard does not eat the
// event.
func parseProviderTimestamp(raw string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Now()
	}
	return time.Unix(secs, 0)
}
