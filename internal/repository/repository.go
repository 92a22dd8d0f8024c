package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/icyeza/bkvc/internal/models"
)

type CreateUserParams struct {
	Username       string
	HashedPassword string
	Name           string
	Email          string
	Phone          string
	NationalID     string
	Gender         string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username or email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token if it exists, even if expired or used
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark token as used
	// If the token is already used, must not overwrite the existing 'usedAt'
	// and has to return apperrors.ErrRefreshTokenIsUsed
	MarkUsed(ctx context.Context, tokenString string) (usedAt time.Time, err error)
}

// Card repository interface
type CardRepo interface {
	// Create card
	CreateCard(ctx context.Context, card models.Card) (models.Card, error)

	// Get card by number
	// If card not found must return apperrors.ErrCardNotFound
	GetCard(ctx context.Context, number string) (models.Card, error)

	// Same as GetCard but locks the row for the rest of the enclosing transaction.
	// Callers transferring between two cards must acquire locks in number order.
	GetCardForUpdate(ctx context.Context, number string) (models.Card, error)

	// List cards owned by user, newest first
	ListUserCards(ctx context.Context, userID uuid.UUID) ([]models.Card, error)

	// Add delta (may be negative) to card balance and return the updated card.
	// The cards table forbids negative balances, so an overdraft surfaces as db error
	AddToBalance(ctx context.Context, number string, delta decimal.Decimal) (models.Card, error)
}

// Transfer repository interface: transactions and their confirmations
type TransferRepo interface {
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// If transaction not found must return apperrors.ErrTransactionNotFound
	GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)

	SetTransactionStatus(ctx context.Context, id uuid.UUID, status string) error

	CreateConfirmation(ctx context.Context, c models.Confirmation) (models.Confirmation, error)

	// If confirmation not found must return apperrors.ErrConfirmationNotFound
	GetConfirmation(ctx context.Context, id uuid.UUID) (models.Confirmation, error)

	// Same as GetConfirmation but locks the row, serializing concurrent verify
	// attempts on the same confirmation
	GetConfirmationForUpdate(ctx context.Context, id uuid.UUID) (models.Confirmation, error)

	// Transition confirmation status from one state to another.
	// Compare-and-swap: if the stored status differs from 'from' no row is
	// updated and apperrors.ErrConfirmationNotFound is returned
	SetConfirmationStatus(ctx context.Context, id uuid.UUID, from string, to string) error
}

// Storage aggregates all repositories over a single database handle
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Card() CardRepo
	Transfer() TransferRepo

	// InTx runs fn against a Storage bound to one database transaction.
	// Commits if fn returns nil, rolls back everything otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
