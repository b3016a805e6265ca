package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"songforge/internal/auth"
	"songforge/internal/models"
	"songforge/internal/orders"
)

type Handler struct {
	OrderService *orders.OrderService
}

// CreateOrder places a new track request for the authenticated user.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.OrderService.PlaceOrder(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, orders.ErrEmptyHonoree) || errors.Is(err, orders.ErrEmptyStory) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not place order: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

// MyOrders returns the authenticated user's orders, newest first. This is
// the endpoint the synchronizer's backend fetch hits.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.OrderService.OrdersByOwner(r.Context(), userID)
	if err != nil {
		http.Error(w, "Could not list orders: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// GetOrder fetches one order. Owners see their own, admins see any.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.OrderService.GetOrder(r.Context(), orderID)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	isAdmin, _ := r.Context().Value(auth.IsAdminKey).(bool)
	if order.OwnerID != userID && !isAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

// ListOrders returns every order for the admin panel. Admin-only.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.OrderService.ListOrders(r.Context())
	if err != nil {
		http.Error(w, "Could not list orders: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// PatchOrder applies an admin mutation: lifecycle moves, asset URLs,
// payment flips. Admin-only. There is no delete route; orders only move
// forward.
func (h *Handler) PatchOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var patch models.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.OrderService.ApplyPatch(r.Context(), orderID, patch)
	if err != nil {
		http.Error(w, "Could not update order: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}
