package media_api

import (
	"fmt"
	"net/http"

	"ms-campus/internal/auth"
	"ms-campus/internal/logger"
	"ms-campus/internal/media"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	MediaService *media.MediaService
	Logger       *logger.Logger
}

func NewHandler(svc *media.MediaService, log *logger.Logger) *Handler {
	return &Handler{MediaService: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/media/uploads", h.PresignUpload)
		r.Delete("/media", h.DeleteMedia)
	})
}

func (h *Handler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req models.UploadRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	ticket, err := h.MediaService.PresignUpload(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Upload URL created", ticket)
}

func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	publicURL := r.URL.Query().Get("url")
	if publicURL == "" {
		utils.WriteError(w, fmt.Errorf("%w: url query parameter is required", models.ErrInvalidInput))
		return
	}
	if err := h.MediaService.Delete(r.Context(), auth.UserID(r.Context()), publicURL); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Media deleted", nil)
}
