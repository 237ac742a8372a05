package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentService records customer payments and distributes them across open
// orders. One payment, its allocation rows, and every touched order balance
// commit together or not at all.
type PaymentService interface {
	// RecordPaymentWithAllocations persists the payment and applies the
	// allocations strictly in the order given. Any allocation naming an
	// unknown order, exceeding the order's remaining balance, or pushing the
	// allocation total above the cash received aborts the whole operation.
	RecordPaymentWithAllocations(ctx context.Context, draft PaymentDraft, allocations []AllocationInput) (*DuePayment, error)

	GetPayment(ctx context.Context, paymentID int) (*DuePayment, error)
	GetCustomerPayments(ctx context.Context, customerID int) ([]DuePayment, error)
}

type paymentService struct {
	pool *pgxpool.Pool
}

func NewPaymentService(pool *pgxpool.Pool) PaymentService {
	return &paymentService{pool: pool}
}

func (s *paymentService) RecordPaymentWithAllocations(ctx context.Context, draft PaymentDraft, allocations []AllocationInput) (*DuePayment, error) {
	draft.Normalize()
	if err := draft.Validate(allocations); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The customer must exist before money is booked against them.
	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)",
		draft.CustomerID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check customer %d: %w", draft.CustomerID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: customer %d", ErrNotFound, draft.CustomerID)
	}

	var paymentID int
	err = tx.QueryRow(ctx, `
		INSERT INTO due_payments (customer_id, payment_date, amount, unapplied_amount, payment_method, note)
		VALUES ($1, $2, $3, $3, $4, $5)
		RETURNING id
	`, draft.CustomerID, draft.PaymentDate, draft.Amount, draft.PaymentMethod, draft.Note).Scan(&paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	totalAllocated := decimal.Zero
	for i, alloc := range allocations {
		if err := s.applyAllocationTx(ctx, tx, paymentID, i+1, alloc); err != nil {
			return nil, err
		}
		totalAllocated = totalAllocated.Add(alloc.Amount)
	}

	// Whatever was not allocated stays on the payment as the customer's
	// credit, available against future orders.
	unapplied := draft.Amount.Sub(totalAllocated)
	if _, err := tx.Exec(ctx,
		"UPDATE due_payments SET unapplied_amount = $1 WHERE id = $2",
		unapplied, paymentID,
	); err != nil {
		return nil, fmt.Errorf("failed to set unapplied amount: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return s.GetPayment(ctx, paymentID)
}

// applyAllocationTx links one allocation to its order and moves the order's
// balance under a row lock. Two payments hitting the same order serialize
// here; the paid/status computation is read-modify-write inside the lock.
func (s *paymentService) applyAllocationTx(ctx context.Context, tx pgx.Tx, paymentID, position int, alloc AllocationInput) error {
	var paid, due *decimal.Decimal
	var total decimal.Decimal
	var status string
	err := tx.QueryRow(ctx, `
		SELECT paid_amount, due_amount, total, payment_status
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, alloc.OrderID).Scan(&paid, &due, &total, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The source system silently skipped the balance update here;
			// that desynchronizes unapplied_amount from the truth, so an
			// unresolvable order aborts the whole payment instead.
			return fmt.Errorf("%w: allocation %d: order %d", ErrNotFound, position, alloc.OrderID)
		}
		return fmt.Errorf("allocation %d: failed to lock order %d: %w", position, alloc.OrderID, err)
	}

	dueAmount := total
	if due != nil {
		dueAmount = *due
	}
	paidAmount := decimal.Zero
	if paid != nil {
		paidAmount = *paid
	}

	newPaid := paidAmount.Add(alloc.Amount)
	if newPaid.GreaterThan(dueAmount) {
		return fmt.Errorf("%w: allocation %d: %s exceeds remaining balance %s on order %d",
			ErrValidation, position, alloc.Amount, dueAmount.Sub(paidAmount), alloc.OrderID)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO due_payment_allocations (payment_id, order_id, amount)
		VALUES ($1, $2, $3)
	`, paymentID, alloc.OrderID, alloc.Amount); err != nil {
		return fmt.Errorf("allocation %d: failed to insert: %w", position, err)
	}

	newStatus := derivePaymentStatus(newPaid, dueAmount, status)
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET paid_amount = $1, payment_status = $2 WHERE id = $3
	`, newPaid, newStatus, alloc.OrderID); err != nil {
		return fmt.Errorf("allocation %d: failed to update order %d balance: %w", position, alloc.OrderID, err)
	}
	return nil
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID int) (*DuePayment, error) {
	var p DuePayment
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, payment_date::text, amount, unapplied_amount,
		       payment_method, note, created_at
		FROM due_payments
		WHERE id = $1
	`, paymentID).Scan(
		&p.ID, &p.CustomerID, &p.PaymentDate, &p.Amount, &p.UnappliedAmount,
		&p.PaymentMethod, &p.Note, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		return nil, fmt.Errorf("failed to fetch payment %d: %w", paymentID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, payment_id, order_id, amount, created_at
		FROM due_payment_allocations
		WHERE payment_id = $1
		ORDER BY id
	`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a DuePaymentAllocation
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.OrderID, &a.Amount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		p.Allocations = append(p.Allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}
	return &p, nil
}

func (s *paymentService) GetCustomerPayments(ctx context.Context, customerID int) ([]DuePayment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, payment_date::text, amount, unapplied_amount,
		       payment_method, note, created_at
		FROM due_payments
		WHERE customer_id = $1
		ORDER BY id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []DuePayment
	for rows.Next() {
		var p DuePayment
		if err := rows.Scan(
			&p.ID, &p.CustomerID, &p.PaymentDate, &p.Amount, &p.UnappliedAmount,
			&p.PaymentMethod, &p.Note, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
