package item_api

import (
	"net/http"
	"strconv"

	"ms-campus/internal/auth"
	"ms-campus/internal/logger"
	marketplace "ms-campus/internal/marketplace/service"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	MarketplaceService *marketplace.MarketplaceService
	Logger             *logger.Logger
}

func NewHandler(svc *marketplace.MarketplaceService, log *logger.Logger) *Handler {
	return &Handler{MarketplaceService: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/items", h.ListItems)
	r.Get("/items/{itemId}", h.GetItem)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/items/me", h.ListMyItems)
		r.Post("/items", h.CreateItem)
		r.Put("/items/{itemId}", h.UpdateItem)
		r.Delete("/items/{itemId}", h.DeleteItem)
	})
}

func priceParam(r *http.Request, name string) (*int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil, strconv.ErrSyntax
	}
	return &n, nil
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice, err := priceParam(r, "min_price")
	if err != nil {
		utils.WriteErrorCode(w, http.StatusBadRequest, utils.CodeInvalidInput, "min_price must be a non-negative integer of cents")
		return
	}
	maxPrice, err := priceParam(r, "max_price")
	if err != nil {
		utils.WriteErrorCode(w, http.StatusBadRequest, utils.CodeInvalidInput, "max_price must be a non-negative integer of cents")
		return
	}
	page, limit := utils.Pagination(r)

	result, err := h.MarketplaceService.ListItems(r.Context(), models.ItemFilter{
		Category:  q.Get("category"),
		Condition: models.ItemCondition(q.Get("condition")),
		Query:     q.Get("q"),
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		SellerID:  q.Get("seller"),
		Sort:      q.Get("sort"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Items retrieved", result)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.MarketplaceService.GetItem(r.Context(), chi.URLParam(r, "itemId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Item retrieved", item)
}

func (h *Handler) ListMyItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.MarketplaceService.ListMyItems(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Items retrieved", items)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.ItemRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.MarketplaceService.CreateItem(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Item listed", item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.ItemRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.MarketplaceService.UpdateItem(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "itemId"), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Item updated", item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.MarketplaceService.DeleteItem(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "itemId")); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Item removed", nil)
}
