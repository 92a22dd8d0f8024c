package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/models"
)

type CardRepo struct {
	DB DBTX
}

const cardColumns = `number, user_id, created_at, name, cvv, expire_date, limit_amount, type, status, balance`

const createCard = `-- name: CreateCard
INSERT INTO cards (number, user_id, created_at, name, cvv, expire_date, limit_amount, type, status, balance)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + cardColumns

func (r *CardRepo) CreateCard(ctx context.Context, card models.Card) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, createCard,
		card.Number, card.UserID, card.CreatedAt, card.Name, card.CVV,
		card.ExpireDate, card.Limit, card.Type, card.Status, card.Balance,
	)
	card, err := pgx.CollectOneRow(rows, rowToCard)
	if err != nil {
		return card, fmt.Errorf("db error: %w", err)
	}

	return card, nil
}

const getCard = `-- name: GetCard
SELECT ` + cardColumns + `
FROM cards
WHERE number = $1
`

func (r *CardRepo) GetCard(ctx context.Context, number string) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, getCard, number)
	return collectCard(rows)
}

const getCardForUpdate = getCard + `FOR UPDATE
`

// GetCardForUpdate locks the card row until the enclosing transaction ends.
// Lock cards in number order when taking more than one to avoid deadlocks
func (r *CardRepo) GetCardForUpdate(ctx context.Context, number string) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, getCardForUpdate, number)
	return collectCard(rows)
}

const listUserCards = `-- name: ListUserCards
SELECT ` + cardColumns + `
FROM cards
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *CardRepo) ListUserCards(ctx context.Context, userID uuid.UUID) ([]models.Card, error) {
	rows, _ := r.DB.Query(ctx, listUserCards, userID)
	cards, err := pgx.CollectRows(rows, rowToCard)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return cards, nil
}

const addToBalance = `-- name: AddToBalance
UPDATE cards
SET balance = balance + $2
WHERE number = $1
RETURNING ` + cardColumns

func (r *CardRepo) AddToBalance(ctx context.Context, number string, delta decimal.Decimal) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, addToBalance, number, delta)
	return collectCard(rows)
}

func collectCard(rows pgx.Rows) (models.Card, error) {
	card, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, pgx.ErrNoRows):
		return card, apperrors.ErrCardNotFound
	default:
		return card, fmt.Errorf("db error: %w", err)
	}
}

func rowToCard(row pgx.CollectableRow) (models.Card, error) {
	var c models.Card
	err := row.Scan(&c.Number, &c.UserID, &c.CreatedAt, &c.Name, &c.CVV, &c.ExpireDate, &c.Limit, &c.Type, &c.Status, &c.Balance)
	return c, err
}
