package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CardStatusActive   = "active"
	CardStatusInactive = "inactive"

	CardTypeDebit  = "debit"
	CardTypeCredit = "credit"
)

// Card is a funding instrument owned by exactly one user.
// Balance is mutated only by a verified transfer or an explicit deposit.
type Card struct {
	Number     string
	UserID     uuid.UUID
	CreatedAt  time.Time
	Name       string
	CVV        string
	ExpireDate time.Time
	Limit      decimal.Decimal
	Type       string
	Status     string
	Balance    decimal.Decimal
}

// Masked returns the card number with all but the last four digits hidden
func (c Card) Masked() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	masked := make([]byte, len(c.Number))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(masked)-4:], c.Number[len(c.Number)-4:])
	return string(masked)
}
