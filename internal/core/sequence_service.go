package core

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceService hands out the human-facing order numbers. Numbers are
// unique and gapless on commit: the counter row is incremented under a row
// lock inside the caller's transaction, so an aborted order creation rolls
// the increment back and no number is burned.
type SequenceService interface {
	// NextOrderNumber increments the counter in its own transaction.
	NextOrderNumber(ctx context.Context) (string, error)
	// NextOrderNumberTx increments the counter inside the caller's
	// transaction. The row lock is held until that transaction ends,
	// serializing concurrent order creations at this single point.
	NextOrderNumberTx(ctx context.Context, tx pgx.Tx) (string, error)
}

type sequenceService struct {
	pool *pgxpool.Pool
}

func NewSequenceService(pool *pgxpool.Pool) SequenceService {
	return &sequenceService{pool: pool}
}

func (s *sequenceService) NextOrderNumber(ctx context.Context) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	number, err := nextOrderNumberWithTx(ctx, tx)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit sequence increment: %w", err)
	}
	return number, nil
}

func (s *sequenceService) NextOrderNumberTx(ctx context.Context, tx pgx.Tx) (string, error) {
	return nextOrderNumberWithTx(ctx, tx)
}

func nextOrderNumberWithTx(ctx context.Context, tx pgx.Tx) (string, error) {
	// Lazily seed the singleton row. ON CONFLICT DO NOTHING keeps concurrent
	// first calls from racing.
	_, err := tx.Exec(ctx, `
		INSERT INTO counters (name, value)
		VALUES ($1, 0)
		ON CONFLICT (name) DO NOTHING
	`, orderNumberCounter)
	if err != nil {
		return "", fmt.Errorf("failed to seed order number counter: %w", err)
	}

	var current int64
	err = tx.QueryRow(ctx,
		"SELECT value FROM counters WHERE name = $1 FOR UPDATE",
		orderNumberCounter,
	).Scan(&current)
	if err != nil {
		return "", fmt.Errorf("failed to lock order number counter: %w", err)
	}

	next := current + 1
	if _, err := tx.Exec(ctx,
		"UPDATE counters SET value = $1 WHERE name = $2",
		next, orderNumberCounter,
	); err != nil {
		return "", fmt.Errorf("failed to advance order number counter: %w", err)
	}

	return strconv.FormatInt(next, 10), nil
}
