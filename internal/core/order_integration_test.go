package core_test

import (
	"context"
	"errors"
	"testing"

	"pos-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupOrderTest(t *testing.T) (*pgxpool.Pool, core.OrderService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	seq := core.NewSequenceService(pool)
	return pool, core.NewOrderService(pool, seq), context.Background()
}

func TestOrderService_CreateOrderWithItems(t *testing.T) {
	pool, orderSvc, ctx := setupOrderTest(t)
	defer pool.Close()

	order, err := orderSvc.CreateOrderWithItems(ctx, core.OrderDraft{
		Status:        core.OrderStatusCompleted,
		Subtotal:      d("550.00"),
		Discount:      d("50.00"),
		Total:         d("500.00"),
		PaymentMethod: "cash",
		PaymentStatus: core.PaymentStatusPaid,
	}, []core.OrderItemInput{
		{ItemName: "Chicken Biryani", Quantity: d("2"), UnitPrice: d("250.00")},
		{ItemName: "Lassi", Quantity: d("1"), UnitPrice: d("50.00")},
	})
	if err != nil {
		t.Fatalf("CreateOrderWithItems failed: %v", err)
	}

	if order.OrderNumber != "1" {
		t.Errorf("Expected order number 1, got %s", order.OrderNumber)
	}
	if len(order.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(order.Items))
	}
	if !order.Items[0].LineTotal.Equal(d("500.00")) {
		t.Errorf("Expected line total 500.00, got %s", order.Items[0].LineTotal)
	}
	if order.CustomerID != nil {
		t.Error("Cash sale should not carry a customer")
	}
	if order.DueAmount != nil || order.PaidAmount != nil {
		t.Error("Cash sale should not carry due/paid amounts")
	}
}

func TestOrderService_CreditSaleCreatesCustomer(t *testing.T) {
	pool, orderSvc, ctx := setupOrderTest(t)
	defer pool.Close()

	order, err := orderSvc.CreateOrderWithItems(ctx, core.OrderDraft{
		Status:        core.OrderStatusCompleted,
		Subtotal:      d("100.00"),
		Total:         d("100.00"),
		PaymentStatus: core.PaymentStatusDue,
		CustomerName:  "Karim Uddin",
		CustomerPhone: "01700000001",
	}, []core.OrderItemInput{
		{ItemName: "Beef Curry", Quantity: d("1"), UnitPrice: d("100.00")},
	})
	if err != nil {
		t.Fatalf("CreateOrderWithItems failed: %v", err)
	}

	if order.CustomerID == nil {
		t.Fatal("Credit sale must resolve a customer")
	}
	if order.CustomerName != "Karim Uddin" {
		t.Errorf("Expected customer name Karim Uddin, got %s", order.CustomerName)
	}
	if order.DueAmount == nil || !order.DueAmount.Equal(d("100.00")) {
		t.Errorf("Expected due amount 100.00, got %v", order.DueAmount)
	}
	if order.PaidAmount == nil || !order.PaidAmount.IsZero() {
		t.Errorf("Expected paid amount 0, got %v", order.PaidAmount)
	}

	// A second credit sale for the same name reuses the customer.
	second, err := orderSvc.CreateOrder(ctx, core.OrderDraft{
		Status:        core.OrderStatusCompleted,
		Subtotal:      d("40.00"),
		Total:         d("40.00"),
		PaymentStatus: core.PaymentStatusDue,
		CustomerName:  "Karim Uddin",
	})
	if err != nil {
		t.Fatalf("Second CreateOrder failed: %v", err)
	}
	if *second.CustomerID != *order.CustomerID {
		t.Errorf("Expected customer %d to be reused, got %d", *order.CustomerID, *second.CustomerID)
	}

	var customerCount int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&customerCount); err != nil {
		t.Fatalf("count customers: %v", err)
	}
	if customerCount != 1 {
		t.Errorf("Expected 1 customer, got %d", customerCount)
	}
}

func TestOrderService_BranchScopedCustomers(t *testing.T) {
	pool, orderSvc, ctx := setupOrderTest(t)
	defer pool.Close()

	branch1, branch2 := 1, 2
	first, err := orderSvc.CreateOrder(ctx, core.OrderDraft{
		Subtotal: d("10.00"), Total: d("10.00"),
		PaymentStatus: core.PaymentStatusDue,
		CustomerName:  "Rahim", BranchID: &branch1,
	})
	if err != nil {
		t.Fatalf("CreateOrder branch 1 failed: %v", err)
	}

	second, err := orderSvc.CreateOrder(ctx, core.OrderDraft{
		Subtotal: d("10.00"), Total: d("10.00"),
		PaymentStatus: core.PaymentStatusDue,
		CustomerName:  "Rahim", BranchID: &branch2,
	})
	if err != nil {
		t.Fatalf("CreateOrder branch 2 failed: %v", err)
	}

	if *first.CustomerID == *second.CustomerID {
		t.Error("Same name in different branches must be distinct customers")
	}
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	pool, orderSvc, ctx := setupOrderTest(t)
	defer pool.Close()

	order, err := orderSvc.CreateOrder(ctx, core.OrderDraft{
		Status:        core.OrderStatusDraft,
		Subtotal:      d("75.00"),
		Total:         d("75.00"),
		PaymentStatus: core.PaymentStatusPaid,
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	order, err = orderSvc.UpdateOrderStatus(ctx, order.ID, core.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("UpdateOrderStatus confirmed failed: %v", err)
	}
	if order.Status != core.OrderStatusConfirmed {
		t.Errorf("Expected confirmed, got %s", order.Status)
	}
	if order.CompletedAt != nil {
		t.Error("confirmed order must not have completed_at")
	}

	order, err = orderSvc.UpdateOrderStatus(ctx, order.ID, core.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateOrderStatus completed failed: %v", err)
	}
	if order.CompletedAt == nil {
		t.Error("completed order must have completed_at")
	}

	// Unknown status is rejected.
	if _, err := orderSvc.UpdateOrderStatus(ctx, order.ID, "shipped"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected validation error for unknown status, got %v", err)
	}

	// Unknown order is a not-found error.
	if _, err := orderSvc.UpdateOrderStatus(ctx, 999999, core.OrderStatusCancelled); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestOrderService_CancelledOrderLocked(t *testing.T) {
	pool, orderSvc, ctx := setupOrderTest(t)
	defer pool.Close()

	order, err := orderSvc.CreateOrder(ctx, core.OrderDraft{
		Status:        core.OrderStatusDraft,
		Subtotal:      d("20.00"),
		Total:         d("20.00"),
		PaymentStatus: core.PaymentStatusPaid,
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if _, err := orderSvc.UpdateOrderStatus(ctx, order.ID, core.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := orderSvc.UpdateOrderStatus(ctx, order.ID, core.OrderStatusConfirmed); !errors.Is(err, core.ErrConflict) {
		t.Errorf("Expected conflict reviving a cancelled order, got %v", err)
	}
}

func TestOrderService_GetOrderByNumber(t *testing.T) {
	pool, orderSvc, ctx := setupOrderTest(t)
	defer pool.Close()

	created, err := orderSvc.CreateOrder(ctx, core.OrderDraft{
		Status:        core.OrderStatusCompleted,
		Subtotal:      d("30.00"),
		Total:         d("30.00"),
		PaymentStatus: core.PaymentStatusPaid,
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	fetched, err := orderSvc.GetOrderByNumber(ctx, created.OrderNumber)
	if err != nil {
		t.Fatalf("GetOrderByNumber failed: %v", err)
	}
	if fetched.ID != created.ID {
		t.Errorf("Expected order %d, got %d", created.ID, fetched.ID)
	}

	if _, err := orderSvc.GetOrderByNumber(ctx, "does-not-exist"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}
