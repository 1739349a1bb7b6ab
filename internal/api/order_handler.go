package api

import (
	"net/http"

	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/gorilla/mux"
)

// CreateOrder handles POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.service.CreateOrder(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, order)
}

// ListOrders handles GET /api/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// GetCart handles GET /api/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.GetCart(r.Context(), UserID(r.Context())))
}

// AddCartItem handles POST /api/cart/items
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req model.CartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.service.AddToCart(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// RemoveCartItem handles DELETE /api/cart/items/{menuItemId}
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.RemoveFromCart(r.Context(), UserID(r.Context()), mux.Vars(r)["menuItemId"]))
}

// ClearCart handles DELETE /api/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.ClearCart(r.Context(), UserID(r.Context())))
}

// Checkout handles POST /api/cart/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Checkout(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, orders)
}
