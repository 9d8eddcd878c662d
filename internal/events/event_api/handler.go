package event_api

import (
	"net/http"

	"ms-campus/internal/auth"
	"ms-campus/internal/calendar"
	events "ms-campus/internal/events/service"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	EventService *events.EventService
	Logger       *logger.Logger
}

func NewHandler(svc *events.EventService, log *logger.Logger) *Handler {
	return &Handler{EventService: svc, Logger: log}
}

// RegisterRoutes mounts event routes. Listing, calendar and detail are
// public; everything else requires a caller.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/events", h.ListEvents)
	r.Get("/events/calendar", h.Calendar)
	r.Get("/events/{eventId}", h.GetEvent)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/events", h.CreateEvent)
		r.Get("/events/mine", h.ListMyEvents)
		r.Put("/events/{eventId}", h.UpdateEvent)
		r.Delete("/events/{eventId}", h.DeleteEvent)
		r.Post("/events/{eventId}/publish", h.PublishEvent)
		r.Post("/events/{eventId}/cancel", h.CancelEvent)
		r.Get("/events/{eventId}/progress", h.GetProgress)
		r.Put("/events/{eventId}/progress/{step}", h.MarkStep)
	})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := h.EventService.CreateEvent(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Event created", event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := h.EventService.UpdateEvent(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event updated", event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.EventService.DeleteEvent(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId")); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event deleted", nil)
}

func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.PublishEvent(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event published", event)
}

func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.CancelEvent(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event cancelled", event)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.GetEvent(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event retrieved", event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := utils.ParseTimeParam(r, "from")
	if err != nil {
		utils.WriteErrorCode(w, http.StatusBadRequest, utils.CodeInvalidInput, "from must be RFC 3339")
		return
	}
	to, err := utils.ParseTimeParam(r, "to")
	if err != nil {
		utils.WriteErrorCode(w, http.StatusBadRequest, utils.CodeInvalidInput, "to must be RFC 3339")
		return
	}
	page, limit := utils.Pagination(r)

	result, err := h.EventService.ListEvents(r.Context(), models.EventFilter{
		Category: q.Get("category"),
		Query:    q.Get("q"),
		From:     from,
		To:       to,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Events retrieved", result)
}

func (h *Handler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListMyEvents(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Events retrieved", list)
}

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := calendar.ParseView(q.Get("view"))
	if err != nil {
		utils.WriteErrorCode(w, http.StatusBadRequest, utils.CodeInvalidInput, err.Error())
		return
	}
	weekStart, err := events.ParseWeekStart(q.Get("week_start"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	result, err := h.EventService.Calendar(r.Context(), events.CalendarQuery{
		View:      view,
		Date:      q.Get("date"),
		Timezone:  q.Get("tz"),
		WeekStart: weekStart,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Calendar retrieved", result)
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.EventService.GetProgress(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Progress retrieved", progress)
}

func (h *Handler) MarkStep(w http.ResponseWriter, r *http.Request) {
	step, err := models.ParseWizardStep(chi.URLParam(r, "step"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	progress, err := h.EventService.MarkStep(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), step)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Progress updated", progress)
}
