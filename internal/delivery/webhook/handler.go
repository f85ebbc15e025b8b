package webhook

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/filtra-ar/filtrabot/internal/infrastructure/whatsapp"
	"github.com/filtra-ar/filtrabot/pkg/logger"
)

const maxBodySize = 1 << 20 // Meta payloads are small; cap the reader

// handleTimeout bounds one event's processing independently of the
// HTTP request, which is acknowledged immediately.
const handleTimeout = 30 * time.Second

// Handler is the inbound HTTP surface: Meta webhook verification,
// event intake, and a liveness probe.
type Handler struct {
	verifyToken string
	dispatcher  *Dispatcher
}

func NewHandler(verifyToken string, dispatcher *Dispatcher) *Handler {
	return &Handler{verifyToken: verifyToken, dispatcher: dispatcher}
}

// Router builds the chi mux for the service.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/webhook", h.verify)
	r.Post("/webhook", h.receive)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

// verify answers Meta's subscription handshake.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	logger.ErrorLogger.Printf("webhook verification failed from %s", r.RemoteAddr)
	w.WriteHeader(http.StatusForbidden)
}

// receive acknowledges with 200 no matter what and processes events in
// the background. A non-200 would make Meta retry and disable the
// subscription after repeated failures; the dedup window covers the
// retries a slow 200 still causes.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		logger.ErrorLogger.Printf("webhook read: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	events, err := whatsapp.ParseEvents(body)
	if err != nil {
		logger.ErrorLogger.Printf("webhook decode: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, ev := range events {
		ev := ev
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
			defer cancel()
			if err := h.dispatcher.Dispatch(ctx, ev); err != nil {
				logger.ErrorLogger.Printf("handle event %s: %v", ev.ProviderID, err)
			}
		}()
	}
	w.WriteHeader(http.StatusOK)
}
