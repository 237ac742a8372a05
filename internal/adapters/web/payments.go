package web

import (
	"net/http"

	"pos-ledger/internal/core"
)

// recordPayment handles POST /api/payments.
// Body: { payment draft fields..., allocations: [{order_id, amount}] }
// Allocations are applied in the order supplied; the payments UI sorts
// oldest-first before submitting.
func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		core.PaymentDraft
		Allocations []core.AllocationInput `json:"allocations"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	payment, err := h.payments.RecordPaymentWithAllocations(r.Context(), body.PaymentDraft, body.Allocations)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, payment)
}

// getPayment handles GET /api/payments/{id}.
func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid payment id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	payment, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, payment)
}

// customerDueSummary handles GET /api/customers/{id}/due-summary.
func (h *Handler) customerDueSummary(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid customer id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	summary, err := h.summaries.CustomerDueSummary(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// allCustomersDueSummary handles GET /api/due-summaries?branch_id=.
func (h *Handler) allCustomersDueSummary(w http.ResponseWriter, r *http.Request) {
	branchID, err := branchParam(r)
	if err != nil {
		writeError(w, r, "invalid branch_id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	summaries, err := h.summaries.AllCustomersDueSummary(r.Context(), branchID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, summaries)
}
