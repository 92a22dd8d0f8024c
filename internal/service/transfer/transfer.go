package transfer

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/logger"
	"github.com/icyeza/bkvc/internal/models"
	"github.com/icyeza/bkvc/internal/notifier"
	"github.com/icyeza/bkvc/internal/repository"
)

// Confirmations expire three minutes after the transfer is requested
const defaultConfirmationTTL = 3 * time.Minute

type Config struct {
	// Confirmation lifetime. Default if zero
	ConfirmationTTL time.Duration

	// Clock override for tests. time.Now if nil
	Now func() time.Time
}

// TransferService moves money between cards. A transfer is requested first,
// which creates a pending transaction guarded by a one-time code, and only a
// successful code verification moves the funds
type TransferService struct {
	storage  repository.Storage
	notifier notifier.Notifier
	l        logger.Logger

	ttl time.Duration
	now func() time.Time
}

func NewService(storage repository.Storage, n notifier.Notifier, l logger.Logger, cfg Config) *TransferService {
	ttl := cfg.ConfirmationTTL
	if ttl == 0 {
		ttl = defaultConfirmationTTL
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TransferService{
		storage:  storage,
		notifier: n,
		l:        l,
		ttl:      ttl,
		now:      now,
	}
}

// Initiate validates a transfer request and creates a pending transaction
// with its confirmation. Balances are not touched here: funds move only on
// successful verification. The code is dispatched to the requester's email
// after the records are committed, best-effort
func (s *TransferService) Initiate(ctx context.Context, user *models.User, senderNumber string, receiverNumber string, amount decimal.Decimal) (models.Confirmation, error) {
	var conf models.Confirmation

	if senderNumber == receiverNumber {
		return conf, apperrors.ErrSameCard
	}

	sender, err := s.storage.Card().GetCard(ctx, senderNumber)
	if err != nil {
		return conf, err
	}
	if _, err := s.storage.Card().GetCard(ctx, receiverNumber); err != nil {
		return conf, err
	}

	if sender.UserID != user.ID {
		return conf, apperrors.ErrCardNotOwned
	}

	if amount.Sign() <= 0 {
		return conf, apperrors.ErrAmountInvalid
	}
	if sender.Balance.LessThan(amount) {
		return conf, apperrors.ErrInsufficientFunds
	}
	if sender.Limit.LessThan(amount) {
		return conf, apperrors.ErrLimitExceeded
	}

	code, err := GenerateCode()
	if err != nil {
		return conf, fmt.Errorf("can't generate verification code. Err: %w", err)
	}

	now := s.now().Truncate(time.Second)
	transaction := models.Transaction{
		ID:             uuid.New(),
		CreatedAt:      now,
		Amount:         amount,
		Status:         models.TransactionPending,
		SenderNumber:   senderNumber,
		ReceiverNumber: receiverNumber,
	}
	conf = models.Confirmation{
		ID:            uuid.New(),
		TransactionID: transaction.ID,
		CreatedAt:     now,
		Code:          code,
		Status:        models.ConfirmationPending,
		ExpiresAt:     now.Add(s.ttl),
	}

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		if _, err := st.Transfer().CreateTransaction(ctx, transaction); err != nil {
			return err
		}

		_, err := st.Transfer().CreateConfirmation(ctx, conf)
		return err
	})
	if err != nil {
		return conf, fmt.Errorf("can't create transfer. Err: %w", err)
	}

	go s.sendCode(user.Email, conf.ID, code)

	return conf, nil
}

// VerifyResult describes a transfer applied by Verify
type VerifyResult struct {
	Transaction models.Transaction
	Sender      models.Card
	Receiver    models.Card
}

// Verify checks the submitted code against a pending confirmation and, on
// match, applies the transfer: sender debited, receiver credited, transaction
// approved, confirmation used. All four writes commit as one unit. The
// confirmation row is locked for the whole sequence, so at most one Verify
// ever succeeds per confirmation; a concurrent duplicate observes the used
// status and fails.
//
// A confirmation past its deadline transitions to expired and that transition
// commits even though Verify fails: an expired code is never accepted, match
// or not. Rejections (used, expired, wrong code) touch nothing else
func (s *TransferService) Verify(ctx context.Context, confirmationID uuid.UUID, code string) (VerifyResult, error) {
	var result VerifyResult
	var expired bool

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		conf, err := st.Transfer().GetConfirmationForUpdate(ctx, confirmationID)
		if err != nil {
			return err
		}

		switch conf.Status {
		case models.ConfirmationUsed:
			return apperrors.ErrConfirmationUsed
		case models.ConfirmationExpired:
			return apperrors.ErrConfirmationExpired
		}

		// Deadline check comes strictly before the code comparison
		if conf.Expired(s.now()) {
			expired = true
			return st.Transfer().SetConfirmationStatus(ctx, conf.ID, models.ConfirmationPending, models.ConfirmationExpired)
		}

		if subtle.ConstantTimeCompare([]byte(code), []byte(conf.Code)) != 1 {
			return apperrors.ErrCodeInvalid
		}

		transaction, err := st.Transfer().GetTransaction(ctx, conf.TransactionID)
		if err != nil {
			return err
		}

		sender, receiver, err := lockCardPair(ctx, st.Card(), transaction.SenderNumber, transaction.ReceiverNumber)
		if err != nil {
			return err
		}

		// The initiate-time funds check may have gone stale
		if sender.Balance.LessThan(transaction.Amount) {
			return apperrors.ErrInsufficientFunds
		}

		result.Sender, err = st.Card().AddToBalance(ctx, sender.Number, transaction.Amount.Neg())
		if err != nil {
			return err
		}
		result.Receiver, err = st.Card().AddToBalance(ctx, receiver.Number, transaction.Amount)
		if err != nil {
			return err
		}

		if err := st.Transfer().SetTransactionStatus(ctx, transaction.ID, models.TransactionApproved); err != nil {
			return err
		}
		if err := st.Transfer().SetConfirmationStatus(ctx, conf.ID, models.ConfirmationPending, models.ConfirmationUsed); err != nil {
			return err
		}

		transaction.Status = models.TransactionApproved
		result.Transaction = transaction
		return nil
	})

	switch {
	case err != nil:
		return result, err
	case expired:
		return result, apperrors.ErrConfirmationExpired
	}

	go s.sendReceipt(result)

	return result, nil
}

// Status returns the confirmation with its transaction for the requester's
// own transfer, applying the lazy expiry transition on the way
func (s *TransferService) Status(ctx context.Context, user *models.User, confirmationID uuid.UUID) (models.Confirmation, models.Transaction, error) {
	conf, transaction, err := s.ownConfirmation(ctx, user, confirmationID)
	if err != nil {
		return conf, transaction, err
	}

	if conf.Status == models.ConfirmationPending && conf.Expired(s.now()) {
		err := s.storage.Transfer().SetConfirmationStatus(ctx, conf.ID, models.ConfirmationPending, models.ConfirmationExpired)
		// A concurrent verify may have won the swap; re-read either way
		if err != nil && !errors.Is(err, apperrors.ErrConfirmationNotFound) {
			return conf, transaction, err
		}

		conf, err = s.storage.Transfer().GetConfirmation(ctx, confirmationID)
		if err != nil {
			return conf, transaction, err
		}
	}

	return conf, transaction, nil
}

// Resend dispatches the confirmation code to the requester again. Only the
// owner of the sending card may ask, and only while the confirmation is
// still pending
func (s *TransferService) Resend(ctx context.Context, user *models.User, confirmationID uuid.UUID) error {
	conf, _, err := s.ownConfirmation(ctx, user, confirmationID)
	if err != nil {
		return err
	}

	switch {
	case conf.Status == models.ConfirmationUsed:
		return apperrors.ErrConfirmationUsed
	case conf.Status == models.ConfirmationExpired || conf.Expired(s.now()):
		return apperrors.ErrConfirmationExpired
	}

	go s.sendCode(user.Email, conf.ID, conf.Code)

	return nil
}

// ownConfirmation loads a confirmation and verifies the requester owns the
// sending card. Foreign confirmations read as not found
func (s *TransferService) ownConfirmation(ctx context.Context, user *models.User, confirmationID uuid.UUID) (models.Confirmation, models.Transaction, error) {
	var transaction models.Transaction

	conf, err := s.storage.Transfer().GetConfirmation(ctx, confirmationID)
	if err != nil {
		return conf, transaction, err
	}

	transaction, err = s.storage.Transfer().GetTransaction(ctx, conf.TransactionID)
	if err != nil {
		return conf, transaction, err
	}

	sender, err := s.storage.Card().GetCard(ctx, transaction.SenderNumber)
	if err != nil {
		return conf, transaction, err
	}
	if sender.UserID != user.ID {
		return conf, transaction, apperrors.ErrConfirmationNotFound
	}

	return conf, transaction, nil
}

// lockCardPair locks both cards in number order so two opposite transfers
// can not deadlock each other
func lockCardPair(ctx context.Context, cards repository.CardRepo, senderNumber string, receiverNumber string) (sender models.Card, receiver models.Card, err error) {
	first, second := senderNumber, receiverNumber
	if first > second {
		first, second = second, first
	}

	firstCard, err := cards.GetCardForUpdate(ctx, first)
	if err != nil {
		return sender, receiver, err
	}
	secondCard, err := cards.GetCardForUpdate(ctx, second)
	if err != nil {
		return sender, receiver, err
	}

	if firstCard.Number == senderNumber {
		return firstCard, secondCard, nil
	}
	return secondCard, firstCard, nil
}

func (s *TransferService) sendCode(email string, confirmationID uuid.UUID, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.notifier.Send(ctx, notifier.Message{
		To:      email,
		Subject: "Transfer verification",
		Text:    fmt.Sprintf("Your verification code for transfer %s is: %s", confirmationID, code),
		HTML:    fmt.Sprintf("<p>Your verification code for transfer %s is: <strong>%s</strong></p>", confirmationID, code),
	})
	if err != nil {
		s.l.Error("failed to send verification code", "confirmation_id", confirmationID, "error", err)
	}
}

func (s *TransferService) sendReceipt(result VerifyResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, err := s.storage.User().GetUserByID(ctx, result.Receiver.UserID)
	if err != nil {
		s.l.Error("failed to load receiver for receipt", "transaction_id", result.Transaction.ID, "error", err)
		return
	}

	amount := result.Transaction.Amount.String()
	err = s.notifier.Send(ctx, notifier.Message{
		To:      owner.Email,
		Subject: "Transfer received",
		Text:    fmt.Sprintf("You have received %s from %s", amount, result.Sender.Name),
		HTML:    fmt.Sprintf("<p>You have received %s from %s</p>", amount, result.Sender.Name),
	})
	if err != nil {
		s.l.Error("failed to send receipt", "transaction_id", result.Transaction.ID, "error", err)
	}
}
