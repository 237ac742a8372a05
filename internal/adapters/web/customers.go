package web

import (
	"net/http"
)

// listCustomers handles GET /api/customers?branch_id=.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	branchID, err := branchParam(r)
	if err != nil {
		writeError(w, r, "invalid branch_id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	customers, err := h.customers.GetCustomers(r.Context(), branchID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, customers)
}

// createCustomer handles POST /api/customers.
// Body: { name, phone?, branch_id? }
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		BranchID *int   `json:"branch_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	customer, err := h.customers.CreateCustomer(r.Context(), body.Name, body.Phone, body.BranchID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, customer)
}

// getCustomer handles GET /api/customers/{id}.
func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid customer id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	customer, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, customer)
}

// listCustomerDueOrders handles GET /api/customers/{id}/orders/due — the open
// credit orders the payments UI offers for allocation, oldest first.
func (h *Handler) listCustomerDueOrders(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid customer id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	orders, err := h.orders.GetDueOrders(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

// listCustomerPayments handles GET /api/customers/{id}/payments.
func (h *Handler) listCustomerPayments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid customer id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	payments, err := h.payments.GetCustomerPayments(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, payments)
}
