package whatsapp

import (
	"testing"
	"time"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

const samplePayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "messages": [
          {
            "from": "5491122334455",
            "id": "wamid.text1",
            "timestamp": "1767225600",
            "type": "text",
            "text": {"body": "  hola  "}
          },
          {
            "from": "5491122334455",
            "id": "wamid.list1",
            "timestamp": "1767225601",
            "type": "interactive",
            "interactive": {
              "type": "list_reply",
              "list_reply": {"id": "veh:v1", "title": "Toyota Hilux"}
            }
          },
          {
            "from": "5491122334455",
            "id": "wamid.btn1",
            "timestamp": "1767225602",
            "type": "interactive",
            "interactive": {
              "type": "button_reply",
              "button_reply": {"id": "btn_retry", "title": "Intentar de nuevo"}
            }
          },
          {
            "from": "5491122334455",
            "id": "wamid.img1",
            "timestamp": "1767225603",
            "type": "image"
          }
        ]
      }
    }]
  }]
}`

func TestParseEvents(t *testing.T) {
	events, err := ParseEvents([]byte(samplePayload))
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3 (image skipped)", len(events))
	}

	text := events[0]
	if text.Kind != entity.EventText || text.Text != "hola" {
		t.Errorf("text event = %+v", text)
	}
	if text.Identity != "5491122334455" || text.ProviderID != "wamid.text1" {
		t.Errorf("text event identity/id = %+v", text)
	}
	if !text.Timestamp.Equal(time.Unix(1767225600, 0)) {
		t.Errorf("timestamp = %v", text.Timestamp)
	}

	list := events[1]
	if list.Kind != entity.EventListReply || list.SelectionID != "veh:v1" || list.Text != "Toyota Hilux" {
		t.Errorf("list event = %+v", list)
	}

	btn := events[2]
	if btn.Kind != entity.EventButtonReply || btn.SelectionID != "btn_retry" {
		t.Errorf("button event = %+v", btn)
	}
}

func TestParseEventsStatusOnlyPayload(t *testing.T) {
	events, err := ParseEvents([]byte(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{}}]}]}`))
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}

func TestParseEventsBadJSON(t *testing.T) {
	if _, err := ParseEvents([]byte("{nope")); err == nil {
		t.Error("expected decode error")
	}
}

func TestParseProviderTimestampFallback(t *testing.T) {
	before := time.Now()
	got := parseProviderTimestamp("garbage")
	if got.Before(before.Add(-time.Second)) {
		t.Errorf("fallback timestamp = %v, want ~now", got)
	}
}

func TestSanitizeArgentinaNumber(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+54 9 11 2233 4455", "54111522334455"},
		{"5491122334455", "54111522334455"},
		{"541122334455", "54111522334455"},
		{"54111522334455", "54111522334455"},
		{"549351222333", "54351222333"},
		{"15551234567", "15551234567"},
	}
	for _, tc := range cases {
		if got := SanitizeArgentinaNumber(tc.in); got != tc.want {
			t.Errorf("sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
