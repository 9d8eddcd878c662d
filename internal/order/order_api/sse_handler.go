package order_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-campus/internal/auth"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/sse"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Proxies drop idle streams, so a comment line is sent this often.
const keepAliveInterval = 25 * time.Second

type EventOwnership interface {
	GetOwnedEvent(ctx context.Context, userID, eventID string) (*models.Event, error)
}

// SSEHandler streams completed sales to the organizer of an event
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.SalesEmitter
	Events       EventOwnership
}

func NewSSEHandler(log *logger.Logger, emitter *sse.SalesEmitter, events EventOwnership) *SSEHandler {
	return &SSEHandler{Logger: log, EventEmitter: emitter, Events: events}
}

func (h *SSEHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Get("/events/{eventId}/sales/stream", h.HandleEventSales)
}

// HandleEventSales streams sale events for a specific event
func (h *SSEHandler) HandleEventSales(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())
	if _, err := h.Events.GetOwnedEvent(r.Context(), userID, eventID); err != nil {
		h.Logger.LogSecurity("SSE_DENIED", fmt.Sprintf("user %s tried to stream sales of %s: %v", userID, eventID, err))
		utils.WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// the server write timeout would otherwise cut the stream
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	h.setupSSEHeaders(w)
	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToEvent(ctx, eventID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"event_id\":%q}\n\n", eventID)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Organizer %s connected to sales of event %s", userID, eventID))

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case sale, ok := <-eventChan:
			if !ok {
				return
			}
			jsonData, err := json.Marshal(sale)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize sale event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: sale\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from sales of event %s", eventID))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
