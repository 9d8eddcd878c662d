package ticket_api

import (
	"net/http"
	"strconv"

	"ms-campus/internal/auth"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	tickets "ms-campus/internal/tickets/service"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

// RegisterRoutes mounts tier and ticket routes. Tier listing and the total
// ticket count are public.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/events/{eventId}/tiers", h.ListTiers)
	r.Get("/tickets/count", h.GetTotalTicketsCount)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/events/{eventId}/tiers", h.CreateTier)
		r.Put("/events/{eventId}/tiers/{tierId}", h.UpdateTier)
		r.Delete("/events/{eventId}/tiers/{tierId}", h.DeleteTier)
		r.Get("/events/{eventId}/ticket-counts", h.GetTicketCountsForEvent)

		r.Get("/tickets/me", h.ListMyTickets)
		r.Post("/tickets/checkin", h.CheckinTicket)
		r.Get("/tickets/{ticketId}", h.ViewTicket)
		r.Get("/tickets/{ticketId}/qr", h.TicketQR)
	})
}

func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	var req models.TierRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	tier, err := h.TicketService.CreateTier(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Ticket tier created", tier)
}

func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	var req models.TierRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	tier, err := h.TicketService.UpdateTier(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), chi.URLParam(r, "tierId"), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket tier updated", tier)
}

func (h *Handler) DeleteTier(w http.ResponseWriter, r *http.Request) {
	err := h.TicketService.DeleteTier(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), chi.URLParam(r, "tierId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket tier deleted", nil)
}

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.TicketService.ListTiers(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket tiers retrieved", tiers)
}

func (h *Handler) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.ListMyTickets(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Tickets retrieved", list)
}

func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.GetTicket(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "ticketId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket retrieved", ticket)
}

// TicketQR serves the ticket's QR code as a PNG image.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.GetTicket(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "ticketId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(ticket.QRCode)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ticket.QRCode)
}

// CheckinTicket admits a ticket from its scanned QR payload.
// Expected POST request body: {"encrypted_qr": "..."}
func (h *Handler) CheckinTicket(w http.ResponseWriter, r *http.Request) {
	var req models.CheckinRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	ticket, err := h.TicketService.CheckIn(r.Context(), auth.UserID(r.Context()), req.EncryptedQR)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ticket.QRCode = nil
	ticket.QRPayload = ""
	utils.WriteSuccess(w, http.StatusOK, "Check-in successful", ticket)
}
