package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pos-ledger/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Handler exposes the ledger core over JSON. The order-entry frontend and the
// payments UI are the intended callers.
type Handler struct {
	orders    core.OrderService
	payments  core.PaymentService
	summaries core.SummaryService
	customers core.CustomerService
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(
	orders core.OrderService,
	payments core.PaymentService,
	summaries core.SummaryService,
	customers core.CustomerService,
	allowedOrigins string,
) http.Handler {
	h := &Handler{
		orders:    orders,
		payments:  payments,
		summaries: summaries,
		customers: customers,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitAndTrim(allowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/number/{number}", h.getOrderByNumber)
		r.Get("/{id}", h.getOrder)
		r.Post("/{id}/status", h.updateOrderStatus)
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/", h.recordPayment)
		r.Get("/{id}", h.getPayment)
	})

	r.Route("/api/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Get("/{id}/orders/due", h.listCustomerDueOrders)
		r.Get("/{id}/payments", h.listCustomerPayments)
		r.Get("/{id}/due-summary", h.customerDueSummary)
	})

	r.Get("/api/due-summaries", h.allCustomersDueSummary)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// idParam extracts and parses the {id} URL parameter.
func idParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// branchParam extracts the optional ?branch_id query parameter.
func branchParam(r *http.Request) (*int, error) {
	v := r.URL.Query().Get("branch_id")
	if v == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.New("invalid branch_id")
	}
	return &id, nil
}

// decodeJSON decodes the request body into v, writing the error response on
// failure. Returns HTTP 413 when the body exceeds the middleware size limit.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
