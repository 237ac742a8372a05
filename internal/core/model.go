package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Transitions are caller-driven: draft → confirmed or
// qr_pending → completed, any status → cancelled.
const (
	OrderStatusDraft     = "draft"
	OrderStatusQRPending = "qr_pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses. Once an order carries a balance, paid/partial are set
// only by the payment recorder via derivePaymentStatus.
const (
	PaymentStatusPaid    = "paid"
	PaymentStatusDue     = "due"
	PaymentStatusPartial = "partial"
)

// orderNumberCounter is the fixed key of the singleton sequence row.
const orderNumberCounter = "order_number"

// Customer is the owner of credit sales and their payments. Branch scoping is
// optional; a nil BranchID means the customer is visible tenant-wide.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	BranchID  *int      `json:"branch_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is one sale or in-progress ticket. DueAmount and PaidAmount are only
// populated for credit sales (payment_status = "due" at creation); DueAmount
// is the amount originally owed and PaidAmount the cumulative amount applied
// against it by payment allocations.
type Order struct {
	ID            int              `json:"id"`
	OrderNumber   string           `json:"order_number"`
	Status        string           `json:"status"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Discount      decimal.Decimal  `json:"discount"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod string           `json:"payment_method"`
	PaymentStatus string           `json:"payment_status"`
	DueAmount     *decimal.Decimal `json:"due_amount,omitempty"`
	PaidAmount    *decimal.Decimal `json:"paid_amount,omitempty"`
	CustomerID    *int             `json:"customer_id,omitempty"`
	CustomerName  string           `json:"customer_name,omitempty"`
	Items         []OrderItem      `json:"items,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// OrderItem is one line on an order, inserted in the same transaction as the
// order header.
type OrderItem struct {
	ID        int             `json:"id"`
	OrderID   int             `json:"order_id"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// DuePayment is one payment event from a customer. UnappliedAmount is the
// portion of Amount not allocated to any order — the customer's credit,
// available for allocation against future orders.
type DuePayment struct {
	ID              int                    `json:"id"`
	CustomerID      int                    `json:"customer_id"`
	PaymentDate     string                 `json:"payment_date"` // YYYY-MM-DD
	Amount          decimal.Decimal        `json:"amount"`
	UnappliedAmount decimal.Decimal        `json:"unapplied_amount"`
	PaymentMethod   string                 `json:"payment_method"`
	Note            string                 `json:"note,omitempty"`
	Allocations     []DuePaymentAllocation `json:"allocations,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// DuePaymentAllocation links a specific amount of a payment to a specific
// order. Immutable once written.
type DuePaymentAllocation struct {
	ID        int             `json:"id"`
	PaymentID int             `json:"payment_id"`
	OrderID   int             `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderDraft is the input for order creation. For credit sales
// (PaymentStatus = "due") CustomerName identifies the owing customer; an
// unseen name is created on the fly, scoped to BranchID when set.
type OrderDraft struct {
	Status        string          `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	BranchID      *int            `json:"branch_id,omitempty"`
}

// OrderItemInput is one line of an order draft.
type OrderItemInput struct {
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PaymentDraft is the input for recording a due payment.
type PaymentDraft struct {
	CustomerID    int             `json:"customer_id"`
	PaymentDate   string          `json:"payment_date"` // YYYY-MM-DD, defaults to today
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Note          string          `json:"note"`
}

// AllocationInput directs part of a payment at one order. Applied strictly in
// the order the caller supplies — oldest-first is a caller-side policy.
type AllocationInput struct {
	OrderID int             `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// DueSummary is a customer's outstanding position, recomputed from the
// orders and payments tables on every call.
type DueSummary struct {
	TotalDue    decimal.Decimal `json:"total_due"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Balance     decimal.Decimal `json:"balance"`
	Credit      decimal.Decimal `json:"credit"`
	OrdersCount int             `json:"orders_count"`
}

// CustomerDueSummary pairs a customer with their due summary for the
// all-customers listing.
type CustomerDueSummary struct {
	Customer Customer   `json:"customer"`
	Summary  DueSummary `json:"summary"`
}
