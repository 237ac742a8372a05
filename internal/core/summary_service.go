package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SummaryService reconstructs customer balances from the orders and payments
// tables on every call. Nothing here is cached or materialized: the two
// tables are append-mostly, so recomputing keeps any drift self-healing and
// every balance auditable from the ledger rows.
type SummaryService interface {
	CustomerDueSummary(ctx context.Context, customerID int) (*DueSummary, error)
	// AllCustomersDueSummary lists customers with open orders or available
	// credit, optionally restricted to one branch.
	AllCustomersDueSummary(ctx context.Context, branchID *int) ([]CustomerDueSummary, error)
}

type summaryService struct {
	pool      *pgxpool.Pool
	customers CustomerService
}

func NewSummaryService(pool *pgxpool.Pool, customers CustomerService) SummaryService {
	return &summaryService{pool: pool, customers: customers}
}

func (s *summaryService) CustomerDueSummary(ctx context.Context, customerID int) (*DueSummary, error) {
	if _, err := s.customers.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.computeSummary(ctx, customerID)
}

func (s *summaryService) computeSummary(ctx context.Context, customerID int) (*DueSummary, error) {
	var sum DueSummary
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(COALESCE(due_amount, total)), 0),
		       COALESCE(SUM(COALESCE(paid_amount, 0)), 0),
		       COUNT(*)
		FROM orders
		WHERE customer_id = $1 AND payment_status IN ($2, $3)
	`, customerID, PaymentStatusDue, PaymentStatusPartial).Scan(
		&sum.TotalDue, &sum.TotalPaid, &sum.OrdersCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders for customer %d: %w", customerID, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(unapplied_amount), 0)
		FROM due_payments
		WHERE customer_id = $1
	`, customerID).Scan(&sum.Credit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate credit for customer %d: %w", customerID, err)
	}

	sum.Balance = sum.TotalDue.Sub(sum.TotalPaid)
	return &sum, nil
}

func (s *summaryService) AllCustomersDueSummary(ctx context.Context, branchID *int) ([]CustomerDueSummary, error) {
	customers, err := s.customers.GetCustomers(ctx, branchID)
	if err != nil {
		return nil, err
	}

	var out []CustomerDueSummary
	for _, c := range customers {
		sum, err := s.computeSummary(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		// Customers with no outstanding history are omitted.
		if sum.OrdersCount == 0 && !sum.Credit.IsPositive() {
			continue
		}
		out = append(out, CustomerDueSummary{Customer: c, Summary: *sum})
	}
	return out, nil
}
