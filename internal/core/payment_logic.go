package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalize cleans up draft input coming from the order-entry UI.
func (d *OrderDraft) Normalize() {
	d.Status = strings.ToLower(strings.TrimSpace(d.Status))
	d.PaymentStatus = strings.ToLower(strings.TrimSpace(d.PaymentStatus))
	d.PaymentMethod = strings.TrimSpace(d.PaymentMethod)
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.CustomerPhone = strings.TrimSpace(d.CustomerPhone)

	if d.Status == "" {
		d.Status = OrderStatusDraft
	}
	if d.PaymentStatus == "" {
		d.PaymentStatus = PaymentStatusPaid
	}
}

// Validate enforces the monetary invariants on an order draft:
// all amounts >= 0 and total = subtotal - discount, never negative.
func (d *OrderDraft) Validate() error {
	if !isOrderStatus(d.Status) {
		return fmt.Errorf("%w: unknown order status %q", ErrValidation, d.Status)
	}
	if !isPaymentStatus(d.PaymentStatus) {
		return fmt.Errorf("%w: unknown payment status %q", ErrValidation, d.PaymentStatus)
	}
	if d.Subtotal.IsNegative() {
		return fmt.Errorf("%w: subtotal must be >= 0, got %s", ErrValidation, d.Subtotal)
	}
	if d.Discount.IsNegative() {
		return fmt.Errorf("%w: discount must be >= 0, got %s", ErrValidation, d.Discount)
	}
	if d.Total.IsNegative() {
		return fmt.Errorf("%w: total must be >= 0, got %s", ErrValidation, d.Total)
	}
	if !d.Total.Equal(d.Subtotal.Sub(d.Discount)) {
		return fmt.Errorf("%w: total %s does not equal subtotal %s - discount %s",
			ErrValidation, d.Total, d.Subtotal, d.Discount)
	}
	if d.PaymentStatus == PaymentStatusDue && d.CustomerName == "" {
		return fmt.Errorf("%w: credit sale requires a customer name", ErrValidation)
	}
	return nil
}

// Normalize fills defaults on a payment draft.
func (d *PaymentDraft) Normalize() {
	d.PaymentDate = strings.TrimSpace(d.PaymentDate)
	d.PaymentMethod = strings.TrimSpace(d.PaymentMethod)
	d.Note = strings.TrimSpace(d.Note)

	if d.PaymentDate == "" {
		d.PaymentDate = time.Now().Format("2006-01-02")
	}
}

// Validate checks the payment draft together with its allocations before any
// row is written. Allocations summing above the cash received is a caller
// error, never a valid state.
func (d *PaymentDraft) Validate(allocations []AllocationInput) error {
	if d.CustomerID <= 0 {
		return fmt.Errorf("%w: payment requires a customer id", ErrValidation)
	}
	if !d.Amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be > 0, got %s", ErrValidation, d.Amount)
	}
	if _, err := time.Parse("2006-01-02", d.PaymentDate); err != nil {
		return fmt.Errorf("%w: invalid payment date %q", ErrValidation, d.PaymentDate)
	}

	total := decimal.Zero
	for i, a := range allocations {
		if a.OrderID <= 0 {
			return fmt.Errorf("%w: allocation %d: order id is required", ErrValidation, i+1)
		}
		if !a.Amount.IsPositive() {
			return fmt.Errorf("%w: allocation %d: amount must be > 0, got %s", ErrValidation, i+1, a.Amount)
		}
		total = total.Add(a.Amount)
	}
	if total.GreaterThan(d.Amount) {
		return fmt.Errorf("%w: allocations total %s exceeds payment amount %s",
			ErrValidation, total, d.Amount)
	}
	return nil
}

// derivePaymentStatus is the single source of truth for an order's payment
// status once a balance exists: "paid" when paid >= due, "partial" when
// 0 < paid < due, otherwise the current status is kept.
func derivePaymentStatus(paid, due decimal.Decimal, current string) string {
	switch {
	case paid.GreaterThanOrEqual(due):
		return PaymentStatusPaid
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return current
	}
}

func isOrderStatus(s string) bool {
	switch s {
	case OrderStatusDraft, OrderStatusQRPending, OrderStatusConfirmed,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func isPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusDue, PaymentStatusPartial:
		return true
	}
	return false
}
