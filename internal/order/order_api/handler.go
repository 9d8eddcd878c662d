package order_api

import (
	"net/http"

	"ms-campus/internal/auth"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/order"
	"ms-campus/internal/order/discount"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Promos       *discount.DiscountService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, promos *discount.DiscountService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Promos: promos, Logger: log}
}

// RegisterRoutes mounts checkout, order, promo and webhook routes. The
// Stripe webhook authenticates by signature instead of a bearer token.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/webhooks/stripe", h.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/checkout", h.Checkout)
		r.Get("/orders", h.ListMyOrders)
		r.Get("/orders/{orderId}", h.GetOrder)
		r.Delete("/orders/{orderId}", h.CancelOrder)
		r.Post("/orders/{orderId}/refund", h.RefundOrder)

		r.Get("/events/{eventId}/promos", h.ListPromos)
		r.Post("/events/{eventId}/promos", h.CreatePromo)
		r.Put("/events/{eventId}/promos/{promoId}", h.UpdatePromo)
		r.Delete("/events/{eventId}/promos/{promoId}", h.DeletePromo)
	})
}

// Checkout turns the caller's cart into an order.
// Expected POST request body: {"promo_code": "SPRING25"} (optional)
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if r.ContentLength != 0 && !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	resp, err := h.OrderService.Checkout(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if resp.Order.Status == models.OrderStatusCompleted {
		utils.WriteSuccess(w, http.StatusCreated, "Order completed", resp)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Order created, complete payment to confirm", resp)
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListMyOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Orders retrieved", orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.GetOrder(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order retrieved", o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.Cancel(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order cancelled", o)
}

func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.Refund(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order refunded", o)
}
