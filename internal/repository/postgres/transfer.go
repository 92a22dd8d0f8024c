package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/models"
)

type TransferRepo struct {
	DB DBTX
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, created_at, amount, status, sender_number, receiver_number)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, amount, status, sender_number, receiver_number
`

func (r *TransferRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction, t.ID, t.CreatedAt, t.Amount, t.Status, t.SenderNumber, t.ReceiverNumber)
	t, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return t, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

const getTransaction = `-- name: GetTransaction
SELECT id, created_at, amount, status, sender_number, receiver_number
FROM transactions
WHERE id = $1
`

func (r *TransferRepo) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, id)
	t, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return t, apperrors.ErrTransactionNotFound
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

const setTransactionStatus = `-- name: SetTransactionStatus
UPDATE transactions
SET status = $2
WHERE id = $1
RETURNING id
`

func (r *TransferRepo) SetTransactionStatus(ctx context.Context, id uuid.UUID, status string) error {
	rows, _ := r.DB.Query(ctx, setTransactionStatus, id, status)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrTransactionNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

const createConfirmation = `-- name: CreateConfirmation
INSERT INTO confirmations (id, transaction_id, created_at, code, status, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, transaction_id, created_at, code, status, expires_at
`

func (r *TransferRepo) CreateConfirmation(ctx context.Context, c models.Confirmation) (models.Confirmation, error) {
	rows, _ := r.DB.Query(ctx, createConfirmation, c.ID, c.TransactionID, c.CreatedAt, c.Code, c.Status, c.ExpiresAt)
	c, err := pgx.CollectOneRow(rows, rowToConfirmation)
	if err != nil {
		return c, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

const getConfirmation = `-- name: GetConfirmation
SELECT id, transaction_id, created_at, code, status, expires_at
FROM confirmations
WHERE id = $1
`

func (r *TransferRepo) GetConfirmation(ctx context.Context, id uuid.UUID) (models.Confirmation, error) {
	rows, _ := r.DB.Query(ctx, getConfirmation, id)
	return collectConfirmation(rows)
}

const getConfirmationForUpdate = getConfirmation + `FOR UPDATE
`

// GetConfirmationForUpdate locks the confirmation row so concurrent verify
// attempts on the same confirmation execute one at a time
func (r *TransferRepo) GetConfirmationForUpdate(ctx context.Context, id uuid.UUID) (models.Confirmation, error) {
	rows, _ := r.DB.Query(ctx, getConfirmationForUpdate, id)
	return collectConfirmation(rows)
}

const setConfirmationStatus = `-- name: SetConfirmationStatus
UPDATE confirmations
SET status = $3
WHERE id = $1 AND status = $2
RETURNING id
`

// SetConfirmationStatus transitions status only when the stored value still
// equals 'from'. A lost compare-and-swap reports ErrConfirmationNotFound
func (r *TransferRepo) SetConfirmationStatus(ctx context.Context, id uuid.UUID, from string, to string) error {
	rows, _ := r.DB.Query(ctx, setConfirmationStatus, id, from, to)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrConfirmationNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func collectConfirmation(rows pgx.Rows) (models.Confirmation, error) {
	c, err := pgx.CollectOneRow(rows, rowToConfirmation)

	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		return c, apperrors.ErrConfirmationNotFound
	default:
		return c, fmt.Errorf("db error: %w", err)
	}
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.CreatedAt, &t.Amount, &t.Status, &t.SenderNumber, &t.ReceiverNumber)
	return t, err
}

func rowToConfirmation(row pgx.CollectableRow) (models.Confirmation, error) {
	var c models.Confirmation
	err := row.Scan(&c.ID, &c.TransactionID, &c.CreatedAt, &c.Code, &c.Status, &c.ExpiresAt)
	return c, err
}
