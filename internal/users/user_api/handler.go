package user_api

import (
	"net/http"

	"ms-campus/internal/auth"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	users "ms-campus/internal/users/service"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	UserService *users.UserService
	Logger      *logger.Logger
}

func NewHandler(svc *users.UserService, log *logger.Logger) *Handler {
	return &Handler{UserService: svc, Logger: log}
}

// RegisterRoutes mounts the user routes. Every route requires a caller.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/users/me", h.GetMe)
		r.Put("/users/me", h.UpdateMe)
		r.Get("/users/{userId}", h.GetProfile)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetMe(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Profile retrieved", user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.UserService.UpdateProfile(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Profile updated", user)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.UserService.GetPublicProfile(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Profile retrieved", profile)
}
