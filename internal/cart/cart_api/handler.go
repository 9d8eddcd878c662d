package cart_api

import (
	"net/http"

	"ms-campus/internal/auth"
	cart "ms-campus/internal/cart/service"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	CartService *cart.CartService
	Logger      *logger.Logger
}

func NewHandler(svc *cart.CartService, log *logger.Logger) *Handler {
	return &Handler{CartService: svc, Logger: log}
}

// RegisterRoutes mounts the cart routes. Every cart route needs a caller.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/cart", h.GetCart)
		r.Delete("/cart", h.ClearCart)
		r.Post("/cart/lines", h.AddLine)
		r.Put("/cart/lines/{lineId}", h.UpdateLine)
		r.Delete("/cart/lines/{lineId}", h.RemoveLine)
	})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.CartService.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Cart retrieved", view)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.CartService.Clear(r.Context(), auth.UserID(r.Context())); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Cart cleared", nil)
}

func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req models.AddLineRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	view, err := h.CartService.AddLine(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Cart updated", view)
}

func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateLineRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	view, err := h.CartService.UpdateLine(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "lineId"), req.Quantity)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Cart updated", view)
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	view, err := h.CartService.RemoveLine(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "lineId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Cart updated", view)
}
