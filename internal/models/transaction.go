package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionPending  = "pending"
	TransactionApproved = "approved"

	ConfirmationPending = "pending"
	ConfirmationUsed    = "used"
	ConfirmationExpired = "expired"
)

// Transaction is a requested transfer of funds between two cards.
// It stays pending until its confirmation code is verified.
type Transaction struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Amount         decimal.Decimal
	Status         string
	SenderNumber   string
	ReceiverNumber string
}

// Confirmation is the one-time-code challenge gating a transaction.
// Status is write-once from pending to a terminal state (used or expired).
type Confirmation struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	CreatedAt     time.Time
	Code          string
	Status        string
	ExpiresAt     time.Time
}

// Expired reports whether the confirmation deadline has passed at the given moment
func (c Confirmation) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
