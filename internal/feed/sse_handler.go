package feed

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"songforge/internal/auth"
	"songforge/internal/logger"
)

// SSEHandler streams order events to the browser over Server-Sent Events.
// Each connection gets its own uniquely named subscription on the emitter.
type SSEHandler struct {
	Logger  *logger.Logger
	Emitter *Emitter
}

func NewSSEHandler(log *logger.Logger, emitter *Emitter) *SSEHandler {
	return &SSEHandler{Logger: log, Emitter: emitter}
}

// HandleOrderEvents streams the authenticated user's order events.
func (h *SSEHandler) HandleOrderEvents(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	channel := fmt.Sprintf("orders:%s:%s", ownerID, uuid.NewString())
	events, unsubscribe, err := h.Emitter.Subscribe(ctx, ownerID, channel)
	if err != nil {
		http.Error(w, "Could not subscribe", http.StatusInternalServerError)
		return
	}
	defer unsubscribe()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("client connected to order events for owner %s", ownerID))

	for {
		select {
		case event, ok := <-events:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("channel closed for owner %s", ownerID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize order event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: order\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("client disconnected from order events for owner %s", ownerID))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
