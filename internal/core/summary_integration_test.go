package core_test

import (
	"context"
	"errors"
	"testing"

	"pos-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupSummaryTest(t *testing.T) (*pgxpool.Pool, core.OrderService, core.PaymentService, core.SummaryService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	seq := core.NewSequenceService(pool)
	customers := core.NewCustomerService(pool)
	return pool,
		core.NewOrderService(pool, seq),
		core.NewPaymentService(pool),
		core.NewSummaryService(pool, customers),
		context.Background()
}

func TestSummaryService_BalanceReconstruction(t *testing.T) {
	pool, orderSvc, paySvc, sumSvc, ctx := setupSummaryTest(t)
	defer pool.Close()

	o1 := createDueOrder(t, ctx, orderSvc, "Karim Uddin", "30.00")
	o2 := createDueOrder(t, ctx, orderSvc, "Karim Uddin", "70.00")
	customerID := *o1.CustomerID

	summary, err := sumSvc.CustomerDueSummary(ctx, customerID)
	if err != nil {
		t.Fatalf("CustomerDueSummary failed: %v", err)
	}
	if !summary.TotalDue.Equal(d("100.00")) {
		t.Errorf("Expected total due 100.00, got %s", summary.TotalDue)
	}
	if !summary.Balance.Equal(d("100.00")) {
		t.Errorf("Expected balance 100.00, got %s", summary.Balance)
	}
	if summary.OrdersCount != 2 {
		t.Errorf("Expected 2 open orders, got %d", summary.OrdersCount)
	}

	// Pay both orders in full, oldest first, with 5.00 left over as credit.
	_, err = paySvc.RecordPaymentWithAllocations(ctx,
		core.PaymentDraft{CustomerID: customerID, Amount: d("105.00")},
		[]core.AllocationInput{
			{OrderID: o1.ID, Amount: d("30.00")},
			{OrderID: o2.ID, Amount: d("70.00")},
		},
	)
	if err != nil {
		t.Fatalf("RecordPaymentWithAllocations failed: %v", err)
	}

	summary, err = sumSvc.CustomerDueSummary(ctx, customerID)
	if err != nil {
		t.Fatalf("CustomerDueSummary after payment failed: %v", err)
	}
	// Both orders are now paid, so they drop out of the due aggregation.
	if !summary.Balance.IsZero() {
		t.Errorf("Expected balance 0, got %s", summary.Balance)
	}
	if summary.OrdersCount != 0 {
		t.Errorf("Expected 0 open orders, got %d", summary.OrdersCount)
	}
	if !summary.Credit.Equal(d("5.00")) {
		t.Errorf("Expected credit 5.00, got %s", summary.Credit)
	}
}

func TestSummaryService_PartialBalance(t *testing.T) {
	pool, orderSvc, paySvc, sumSvc, ctx := setupSummaryTest(t)
	defer pool.Close()

	order := createDueOrder(t, ctx, orderSvc, "Karim Uddin", "100.00")
	customerID := *order.CustomerID

	_, err := paySvc.RecordPaymentWithAllocations(ctx,
		core.PaymentDraft{CustomerID: customerID, Amount: d("60.00")},
		[]core.AllocationInput{{OrderID: order.ID, Amount: d("60.00")}},
	)
	if err != nil {
		t.Fatalf("RecordPaymentWithAllocations failed: %v", err)
	}

	summary, err := sumSvc.CustomerDueSummary(ctx, customerID)
	if err != nil {
		t.Fatalf("CustomerDueSummary failed: %v", err)
	}
	if !summary.TotalDue.Equal(d("100.00")) {
		t.Errorf("Expected total due 100.00, got %s", summary.TotalDue)
	}
	if !summary.TotalPaid.Equal(d("60.00")) {
		t.Errorf("Expected total paid 60.00, got %s", summary.TotalPaid)
	}
	if !summary.Balance.Equal(d("40.00")) {
		t.Errorf("Expected balance 40.00, got %s", summary.Balance)
	}
	if summary.OrdersCount != 1 {
		t.Errorf("Expected 1 open order, got %d", summary.OrdersCount)
	}
}

func TestSummaryService_AllCustomersFiltersSettled(t *testing.T) {
	pool, orderSvc, paySvc, sumSvc, ctx := setupSummaryTest(t)
	defer pool.Close()

	open := createDueOrder(t, ctx, orderSvc, "Karim Uddin", "50.00")
	settled := createDueOrder(t, ctx, orderSvc, "Fatema Begum", "20.00")

	// Settle Fatema's order exactly — no open orders, no credit left.
	_, err := paySvc.RecordPaymentWithAllocations(ctx,
		core.PaymentDraft{CustomerID: *settled.CustomerID, Amount: d("20.00")},
		[]core.AllocationInput{{OrderID: settled.ID, Amount: d("20.00")}},
	)
	if err != nil {
		t.Fatalf("RecordPaymentWithAllocations failed: %v", err)
	}

	summaries, err := sumSvc.AllCustomersDueSummary(ctx, nil)
	if err != nil {
		t.Fatalf("AllCustomersDueSummary failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 customer with outstanding history, got %d", len(summaries))
	}
	if summaries[0].Customer.ID != *open.CustomerID {
		t.Errorf("Expected customer %d, got %d", *open.CustomerID, summaries[0].Customer.ID)
	}
	if !summaries[0].Summary.Balance.Equal(d("50.00")) {
		t.Errorf("Expected balance 50.00, got %s", summaries[0].Summary.Balance)
	}
}

func TestSummaryService_CreditOnlyCustomerListed(t *testing.T) {
	pool, orderSvc, paySvc, sumSvc, ctx := setupSummaryTest(t)
	defer pool.Close()

	order := createDueOrder(t, ctx, orderSvc, "Karim Uddin", "10.00")
	customerID := *order.CustomerID

	// Settle the order and overshoot: 10 allocated, 15 left as credit.
	_, err := paySvc.RecordPaymentWithAllocations(ctx,
		core.PaymentDraft{CustomerID: customerID, Amount: d("25.00")},
		[]core.AllocationInput{{OrderID: order.ID, Amount: d("10.00")}},
	)
	if err != nil {
		t.Fatalf("RecordPaymentWithAllocations failed: %v", err)
	}

	summaries, err := sumSvc.AllCustomersDueSummary(ctx, nil)
	if err != nil {
		t.Fatalf("AllCustomersDueSummary failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected credit-only customer to be listed, got %d entries", len(summaries))
	}
	if !summaries[0].Summary.Credit.Equal(d("15.00")) {
		t.Errorf("Expected credit 15.00, got %s", summaries[0].Summary.Credit)
	}
}

func TestSummaryService_UnknownCustomer(t *testing.T) {
	pool, _, _, sumSvc, ctx := setupSummaryTest(t)
	defer pool.Close()

	if _, err := sumSvc.CustomerDueSummary(ctx, 999999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}
