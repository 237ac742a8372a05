package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerService manages the customer master records credit sales and
// payments hang off. Customers are also created implicitly by the order
// service when a credit sale names an unseen customer.
type CustomerService interface {
	CreateCustomer(ctx context.Context, name, phone string, branchID *int) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int) (*Customer, error)
	GetCustomers(ctx context.Context, branchID *int) ([]Customer, error)
}

type customerService struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

func (s *customerService) CreateCustomer(ctx context.Context, name, phone string, branchID *int) (*Customer, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
	}

	var c Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, branch_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, phone, branch_id, created_at
	`, name, phone, branchID).Scan(&c.ID, &c.Name, &c.Phone, &c.BranchID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, phone, branch_id, created_at FROM customers WHERE id = $1",
		customerID,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.BranchID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", customerID, err)
	}
	return &c, nil
}

func (s *customerService) GetCustomers(ctx context.Context, branchID *int) ([]Customer, error) {
	query := "SELECT id, name, phone, branch_id, created_at FROM customers"
	args := []any{}
	if branchID != nil {
		query += " WHERE branch_id = $1"
		args = append(args, *branchID)
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.BranchID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// resolveOrCreateCustomerTx finds a customer by exact name, scoped to the
// branch when one is given, creating the record when no match exists. Runs in
// the caller's transaction so a later failure rolls the insert back too.
func resolveOrCreateCustomerTx(ctx context.Context, tx pgx.Tx, name, phone string, branchID *int) (int, error) {
	query := "SELECT id FROM customers WHERE name = $1 AND branch_id IS NOT DISTINCT FROM $2"

	var id int
	err := tx.QueryRow(ctx, query, name, branchID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up customer %q: %w", name, err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO customers (name, phone, branch_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, phone, branchID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create customer %q: %w", name, err)
	}
	return id, nil
}
