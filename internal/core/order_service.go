package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderService creates orders and drives their status lifecycle. Order
// number, customer resolution, header and item inserts all happen in one
// transaction — a partially created order is never observable, and an abort
// undoes the consumed sequence number.
type OrderService interface {
	// CreateOrder creates an order with no line items.
	CreateOrder(ctx context.Context, draft OrderDraft) (*Order, error)
	// CreateOrderWithItems additionally inserts the line items and, for
	// credit sales, resolves (or creates) the owing customer by exact name.
	CreateOrderWithItems(ctx context.Context, draft OrderDraft, items []OrderItemInput) (*Order, error)
	// UpdateOrderStatus applies a caller-driven status transition. Marking
	// an order completed stamps completed_at.
	UpdateOrderStatus(ctx context.Context, orderID int, status string) (*Order, error)

	GetOrder(ctx context.Context, orderID int) (*Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)
	GetOrders(ctx context.Context, status *string) ([]Order, error)
	// GetDueOrders returns a customer's open credit orders, oldest first —
	// the listing the payments UI allocates against.
	GetDueOrders(ctx context.Context, customerID int) ([]Order, error)
}

type orderService struct {
	pool *pgxpool.Pool
	seq  SequenceService
}

func NewOrderService(pool *pgxpool.Pool, seq SequenceService) OrderService {
	return &orderService{pool: pool, seq: seq}
}

func (s *orderService) CreateOrder(ctx context.Context, draft OrderDraft) (*Order, error) {
	return s.CreateOrderWithItems(ctx, draft, nil)
}

func (s *orderService) CreateOrderWithItems(ctx context.Context, draft OrderDraft, items []OrderItemInput) (*Order, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	for i, item := range items {
		if item.ItemName == "" {
			return nil, fmt.Errorf("%w: item %d: name is required", ErrValidation, i+1)
		}
		if !item.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: item %d: quantity must be > 0", ErrValidation, i+1)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderNumber, err := s.seq.NextOrderNumberTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	// Credit sales carry the owing customer and open with the full total due.
	var customerID *int
	var dueAmount, paidAmount *decimal.Decimal
	if draft.PaymentStatus == PaymentStatusDue {
		id, err := resolveOrCreateCustomerTx(ctx, tx, draft.CustomerName, draft.CustomerPhone, draft.BranchID)
		if err != nil {
			return nil, err
		}
		customerID = &id
		dueAmount = &draft.Total
		zero := decimal.Zero
		paidAmount = &zero
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, status, subtotal, discount, total,
		                    payment_method, payment_status, due_amount, paid_amount, customer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, orderNumber, draft.Status, draft.Subtotal, draft.Discount, draft.Total,
		draft.PaymentMethod, draft.PaymentStatus, dueAmount, paidAmount, customerID,
	).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for i, item := range items {
		lineTotal := item.Quantity.Mul(item.UnitPrice)
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, item_name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5)
		`, orderID, item.ItemName, item.Quantity, item.UnitPrice, lineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID int, status string) (*Order, error) {
	if !isOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx,
		"SELECT status FROM orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	if current == OrderStatusCancelled && status != OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order %d is cancelled", ErrConflict, orderID)
	}

	if status == OrderStatusCompleted {
		_, err = tx.Exec(ctx,
			"UPDATE orders SET status = $1, completed_at = NOW() WHERE id = $2",
			status, orderID)
	} else {
		_, err = tx.Exec(ctx,
			"UPDATE orders SET status = $1 WHERE id = $2",
			status, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d status: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

const orderSelect = `
	SELECT o.id, o.order_number, o.status, o.subtotal, o.discount, o.total,
	       o.payment_method, o.payment_status, o.due_amount, o.paid_amount,
	       o.customer_id, COALESCE(c.name, ''), o.created_at, o.completed_at
	FROM orders o
	LEFT JOIN customers c ON c.id = o.customer_id
`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.OrderNumber, &o.Status, &o.Subtotal, &o.Discount, &o.Total,
		&o.PaymentMethod, &o.PaymentStatus, &o.DueAmount, &o.PaidAmount,
		&o.CustomerID, &o.CustomerName, &o.CreatedAt, &o.CompletedAt,
	)
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	var o Order
	err := scanOrder(s.pool.QueryRow(ctx, orderSelect+" WHERE o.id = $1", orderID), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	items, err := s.fetchOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var orderID int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM orders WHERE order_number = $1",
		orderNumber,
	).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order number %s", ErrNotFound, orderNumber)
		}
		return nil, fmt.Errorf("failed to look up order by number: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) GetOrders(ctx context.Context, status *string) ([]Order, error) {
	query := orderSelect
	args := []any{}
	if status != nil {
		query += " WHERE o.status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY o.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *orderService) GetDueOrders(ctx context.Context, customerID int) ([]Order, error) {
	rows, err := s.pool.Query(ctx, orderSelect+`
		WHERE o.customer_id = $1 AND o.payment_status IN ($2, $3)
		ORDER BY o.created_at
	`, customerID, PaymentStatusDue, PaymentStatusPartial)
	if err != nil {
		return nil, fmt.Errorf("failed to query due orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan due order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *orderService) fetchOrderItems(ctx context.Context, orderID int) ([]OrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, item_name, quantity, unit_price, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemName, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
