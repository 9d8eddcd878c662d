package ticket_api

import (
	"net/http"

	"ms-campus/internal/auth"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

// TicketCountResponse is the response format for the GetTotalTicketsCount endpoint
type TicketCountResponse struct {
	TotalCount int `json:"total_count"`
}

// GetTotalTicketsCount handles the request to get the total ticket count
func (h *Handler) GetTotalTicketsCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.TicketService.GetTotalTicketsCount(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket count retrieved", TicketCountResponse{TotalCount: count})
}

// GetTicketCountsForEvent returns the daily sales counters of an event.
func (h *Handler) GetTicketCountsForEvent(w http.ResponseWriter, r *http.Request) {
	counts, err := h.TicketService.CountsForEvent(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket counts retrieved", counts)
}
