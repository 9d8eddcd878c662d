package analytics_api

import (
	"fmt"
	"net/http"
	"strconv"

	"ms-campus/internal/analytics"
	"ms-campus/internal/auth"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.AnalyticsService
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.AnalyticsService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/analytics/me", h.GetOrganizerAnalytics)
		r.Get("/events/{eventId}/analytics", h.GetEventAnalytics)
		r.Get("/events/{eventId}/orders", h.GetEventOrders)
	})
}

func (h *Handler) GetEventAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.GetEventAnalytics(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event analytics retrieved", result)
}

func (h *Handler) GetOrganizerAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.GetOrganizerAnalytics(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Organizer analytics retrieved", result)
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", models.ErrInvalidInput, name)
	}
	return n, nil
}

// GetEventOrders handles GET /events/{eventId}/orders?status=&sort=&desc=&limit=&offset=
func (h *Handler) GetEventOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := analytics.EventOrderOptions{
		Status:   models.OrderStatus(q.Get("status")),
		SortBy:   q.Get("sort"),
		SortDesc: q.Get("desc") == "true",
	}
	var err error
	if opts.Limit, err = intParam(r, "limit"); err != nil {
		utils.WriteError(w, err)
		return
	}
	if opts.Offset, err = intParam(r, "offset"); err != nil {
		utils.WriteError(w, err)
		return
	}

	orders, err := h.Service.GetEventOrders(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), opts)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event orders retrieved", orders)
}
