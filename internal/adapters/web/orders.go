package web

import (
	"net/http"

	"pos-ledger/internal/core"

	"github.com/go-chi/chi/v5"
)

// createOrder handles POST /api/orders.
// Body: { order draft fields..., items: [{item_name, quantity, unit_price}] }
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		core.OrderDraft
		Items []core.OrderItemInput `json:"items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	order, err := h.orders.CreateOrderWithItems(r.Context(), body.OrderDraft, body.Items)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, order)
}

// listOrders handles GET /api/orders?status=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	var statusPtr *string
	if statusFilter != "" {
		statusPtr = &statusFilter
	}

	orders, err := h.orders.GetOrders(r.Context(), statusPtr)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// getOrderByNumber handles GET /api/orders/number/{number}.
func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrderByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// updateOrderStatus handles POST /api/orders/{id}/status.
// Body: { status }
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), id, body.Status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, order)
}
