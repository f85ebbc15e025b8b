package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
	"github.com/filtra-ar/filtrabot/pkg/logger"
)

func init() {
	logger.Init()
}

type recordingHandler struct {
	mu     sync.Mutex
	events []entity.InboundEvent
	block  chan struct{}
}

func (h *recordingHandler) HandleEvent(_ context.Context, ev entity.InboundEvent) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestVerifyHandshake(t *testing.T) {
	h := NewHandler("secreto", NewDispatcher(&recordingHandler{}))
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.verify_token=secreto&hub.challenge=12345")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	buf := make([]byte, 16)
	n, _ := resp.Body.Read(buf)
	if got := string(buf[:n]); got != "12345" {
		t.Errorf("challenge echo = %q", got)
	}
}

func TestVerifyRejectsBadToken(t *testing.T) {
	h := NewHandler("secreto", NewDispatcher(&recordingHandler{}))
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.verify_token=otro&hub.challenge=12345")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

// Intake must answer 200 even for undecodable bodies; a non-200 makes
// the provider disable the subscription.
func TestReceiveAlwaysAcknowledges(t *testing.T) {
	h := NewHandler("secreto", NewDispatcher(&recordingHandler{}))
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader("{broken"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReceiveDispatchesEvents(t *testing.T) {
	rec := &recordingHandler{}
	h := NewHandler("secreto", NewDispatcher(rec))
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	payload := `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[
		{"from":"549111","id":"wamid.1","timestamp":"` + unixNow() + `","type":"text","text":{"body":"hola"}}
	]}}]}]}`
	resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if rec.count() != 1 {
		t.Fatalf("dispatched events = %d, want 1", rec.count())
	}
}

func unixNow() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}

func TestDispatcherSerializesPerIdentity(t *testing.T) {
	rec := &recordingHandler{block: make(chan struct{})}
	d := NewDispatcher(rec)

	first := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), entity.InboundEvent{Identity: "A", ProviderID: "1"})
		close(first)
	}()

	// Second event for the same identity must wait for the first.
	secondDone := make(chan struct{})
	go func() {
		// Give the first goroutine time to take the lock.
		time.Sleep(50 * time.Millisecond)
		d.Dispatch(context.Background(), entity.InboundEvent{Identity: "A", ProviderID: "2"})
		close(secondDone)
	}()

	select {
	case <-secondDone:
		t.Fatal("second dispatch finished while first still blocked")
	case <-time.After(150 * time.Millisecond):
	}

	// A different identity is not blocked.
	otherDone := make(chan struct{})
	go func() {
		rec2 := entity.InboundEvent{Identity: "B", ProviderID: "3"}
		d.Dispatch(context.Background(), rec2)
		close(otherDone)
	}()
	// Unblock everyone; handler reads block once per call.
	close(rec.block)

	for _, ch := range []chan struct{}{first, secondDone, otherDone} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("dispatch did not finish after unblock")
		}
	}
	if rec.count() != 3 {
		t.Errorf("handled = %d, want 3", rec.count())
	}
}
