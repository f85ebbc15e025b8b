package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/filtra-ar/filtrabot/internal/domain/repository"
)

const defaultAPIBase = "https://graph.facebook.com/v17.0"

// Channel hard limits.
const (
	maxListRows   = 10
	maxButtons    = 3
	maxTitleLen   = 24
	maxDescLen    = 72
)

// Client sends messages through the WhatsApp Cloud API. Implements
// repository.Messenger.
type Client struct {
	httpClient    *http.Client
	token         string
	phoneNumberID string
	apiBase       string
}

// NewClient builds the outbound channel client.
func NewClient(token, phoneNumberID string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		token:         token,
		phoneNumberID: phoneNumberID,
		apiBase:       defaultAPIBase,
	}
}

// SanitizeArgentinaNumber rewrites Argentine numbers into the local
// format this Meta account requires: 54 + area code + 15 + number.
// Standard international (549 11...) fails on this account, so the
// mobile "9" is removed and the local "15" inserted after a Buenos
// Aires "11" area code.
func SanitizeArgentinaNumber(phone string) string {
	phone = strings.NewReplacer("+", "", " ", "").Replace(strings.TrimSpace(phone))

	if !strings.HasPrefix(phone, "54") {
		return phone
	}
	if len(phone) > 2 && phone[2] == '9' {
		phone = "54" + phone[3:]
	}
	if strings.HasPrefix(phone, "5411") && !strings.HasPrefix(phone, "541115") {
		phone = "541115" + phone[4:]
	}
	return phone
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type interactivePayload struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Interactive      interactive `json:"interactive"`
}

type interactive struct {
	Type   string            `json:"type"`
	Body   textBody          `json:"body"`
	Action interactiveAction `json:"action"`
}

type interactiveAction struct {
	Button   string        `json:"button,omitempty"`
	Sections []listSection `json:"sections,omitempty"`
	Buttons  []replyButton `json:"buttons,omitempty"`
}

type listSection struct {
	Title string    `json:"title"`
	Rows  []listRow `json:"rows"`
}

type listRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type replyButton struct {
	Type  string      `json:"type"`
	Reply buttonReply `json:"reply"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (c *Client) SendText(ctx context.Context, to, text string) error {
	return c.post(ctx, textPayload{
		MessagingProduct: "whatsapp",
		To:               SanitizeArgentinaNumber(to),
		Type:             "text",
		Text:             textBody{Body: text},
	})
}

func (c *Client) SendList(ctx context.Context, to, body, buttonLabel, sectionTitle string, rows []repository.ListRow) error {
	if len(rows) > maxListRows {
		rows = rows[:maxListRows]
	}
	wireRows := make([]listRow, 0, len(rows))
	for _, r := range rows {
		wireRows = append(wireRows, listRow{
			ID:          r.ID,
			Title:       clip(r.Title, maxTitleLen),
			Description: clip(r.Description, maxDescLen),
		})
	}
	return c.post(ctx, interactivePayload{
		MessagingProduct: "whatsapp",
		To:               SanitizeArgentinaNumber(to),
		Type:             "interactive",
		Interactive: interactive{
			Type: "list",
			Body: textBody{Body: body},
			Action: interactiveAction{
				Button:   buttonLabel,
				Sections: []listSection{{Title: sectionTitle, Rows: wireRows}},
			},
		},
	})
}

func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []repository.Button) error {
	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}
	wire := make([]replyButton, 0, len(buttons))
	for _, b := range buttons {
		wire = append(wire, replyButton{
			Type:  "reply",
			Reply: buttonReply{ID: b.ID, Title: clip(b.Title, maxTitleLen)},
		})
	}
	return c.post(ctx, interactivePayload{
		MessagingProduct: "whatsapp",
		To:               SanitizeArgentinaNumber(to),
		Type:             "interactive",
		Interactive: interactive{
			Type:   "button",
			Body:   textBody{Body: body},
			Action: interactiveAction{Buttons: wire},
		},
	})
}

func (c *Client) post(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.apiBase, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
