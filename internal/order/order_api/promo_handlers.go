package order_api

import (
	"net/http"

	"ms-campus/internal/auth"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListPromos(w http.ResponseWriter, r *http.Request) {
	promos, err := h.Promos.ListPromos(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Promo codes retrieved", promos)
}

func (h *Handler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	var req models.PromoRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	promo, err := h.Promos.CreatePromo(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Promo code created", promo)
}

func (h *Handler) UpdatePromo(w http.ResponseWriter, r *http.Request) {
	var req models.PromoRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	promo, err := h.Promos.UpdatePromo(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), chi.URLParam(r, "promoId"), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Promo code updated", promo)
}

func (h *Handler) DeletePromo(w http.ResponseWriter, r *http.Request) {
	err := h.Promos.DeletePromo(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"), chi.URLParam(r, "promoId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Promo code deleted", nil)
}
