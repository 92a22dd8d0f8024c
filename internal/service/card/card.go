package card

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/models"
	"github.com/icyeza/bkvc/internal/repository"
)

const (
	numberPrefix = "4"
	numberLength = 16

	// Issued cards stay valid for three years
	validFor = 3 * 365 * 24 * time.Hour
)

type CreateParams struct {
	Name    string
	Type    string
	Limit   decimal.Decimal
	Balance decimal.Decimal
}

type CardService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *CardService {
	return &CardService{storage: storage}
}

// Create issues a new card for the user. Number and security code are
// generated server side, the card starts active
func (s *CardService) Create(ctx context.Context, user *models.User, arg CreateParams) (models.Card, error) {
	var card models.Card

	if arg.Limit.Sign() <= 0 {
		return card, fmt.Errorf("card limit: %w", apperrors.ErrAmountInvalid)
	}
	if arg.Balance.Sign() < 0 {
		return card, fmt.Errorf("opening balance: %w", apperrors.ErrAmountInvalid)
	}

	number, err := GenerateNumber(numberPrefix, numberLength)
	if err != nil {
		return card, fmt.Errorf("can't generate card number. Err: %w", err)
	}

	cvv, err := GenerateCVV()
	if err != nil {
		return card, fmt.Errorf("can't generate cvv. Err: %w", err)
	}

	now := time.Now().Truncate(time.Second)
	cardType := arg.Type
	if cardType == "" {
		cardType = models.CardTypeDebit
	}

	return s.storage.Card().CreateCard(ctx, models.Card{
		Number:     number,
		UserID:     user.ID,
		CreatedAt:  now,
		Name:       arg.Name,
		CVV:        cvv,
		ExpireDate: now.Add(validFor),
		Limit:      arg.Limit,
		Type:       cardType,
		Status:     models.CardStatusActive,
		Balance:    arg.Balance,
	})
}

// List returns the user's cards, newest first
func (s *CardService) List(ctx context.Context, user *models.User) ([]models.Card, error) {
	return s.storage.Card().ListUserCards(ctx, user.ID)
}

// Deposit credits the card balance. Besides a verified transfer this is the
// only operation allowed to change a balance
func (s *CardService) Deposit(ctx context.Context, user *models.User, number string, amount decimal.Decimal) (models.Card, error) {
	var card models.Card

	if amount.Sign() <= 0 {
		return card, apperrors.ErrAmountInvalid
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		locked, err := st.Card().GetCardForUpdate(ctx, number)
		if err != nil {
			return err
		}

		if locked.UserID != user.ID {
			return apperrors.ErrCardNotOwned
		}

		card, err = st.Card().AddToBalance(ctx, number, amount)
		return err
	})
	if err != nil {
		return card, err
	}

	return card, nil
}
