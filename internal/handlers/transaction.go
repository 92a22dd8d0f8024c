package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/handlers/render"
	"github.com/icyeza/bkvc/internal/handlers/userctx"
	"github.com/icyeza/bkvc/internal/logger"
)

func handleInitiateTransfer(ts transferService, l logger.Logger) http.Handler {
	type request struct {
		Amount         decimal.Decimal `json:"transaction_amount" validate:"required"`
		SenderNumber   string          `json:"card_sender_number" validate:"required,luhn"`
		ReceiverNumber string          `json:"card_receiver_number" validate:"required,luhn"`
	}
	type response struct {
		Message        string    `json:"message"`
		TransactionID  uuid.UUID `json:"transaction_id"`
		ConfirmationID uuid.UUID `json:"confirmation_id"`
		ExpiresAt      time.Time `json:"expires_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		conf, err := ts.Initiate(r.Context(), &user, data.SenderNumber, data.ReceiverNumber, data.Amount)

		switch {
		case err == nil:
			render.JSONWithStatus(w, response{
				Message:        "Transaction initiated successfully.",
				TransactionID:  conf.TransactionID,
				ConfirmationID: conf.ID,
				ExpiresAt:      conf.ExpiresAt,
			}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrSameCard):
			render.ServiceError(w, "Sender and receiver cards cannot be the same", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCardNotFound):
			render.ServiceError(w, "One of the cards involved in the transaction was not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrCardNotOwned):
			render.ServiceError(w, "Sender card does not belong to you", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrAmountInvalid):
			render.ServiceError(w, "Transaction amount must be positive", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			render.ServiceError(w, "Sender has insufficient funds", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrLimitExceeded):
			render.ServiceError(w, "Transaction amount exceeds sender's limit", http.StatusBadRequest)
		default:
			l.Error("Failed to initiate transfer", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleVerifyTransfer(ts transferService, l logger.Logger) http.Handler {
	type request struct {
		Code string `json:"code" validate:"required"`
	}
	type response struct {
		Message       string    `json:"message"`
		TransactionID uuid.UUID `json:"transaction_id"`
		Status        string    `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		confirmationID, err := uuid.Parse(r.PathValue("confirmationID"))
		if err != nil {
			render.ServiceError(w, "Transaction confirmation not found", http.StatusNotFound)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := ts.Verify(r.Context(), confirmationID, data.Code)

		switch {
		case err == nil:
			render.JSON(w, response{
				Message:       "Transaction successful.",
				TransactionID: result.Transaction.ID,
				Status:        result.Transaction.Status,
			})
		case errors.Is(err, apperrors.ErrConfirmationNotFound), errors.Is(err, apperrors.ErrTransactionNotFound):
			render.ServiceError(w, "Transaction confirmation not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrConfirmationUsed):
			render.ServiceError(w, "Transaction confirmation has already been used", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrConfirmationExpired):
			render.ServiceError(w, "Transaction confirmation has expired", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCodeInvalid):
			render.ServiceError(w, "Invalid verification code", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCardNotFound):
			render.ServiceError(w, "One of the cards involved in the transaction was not found", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			render.ServiceError(w, "Sender has insufficient funds", http.StatusBadRequest)
		default:
			l.Error("Failed to verify transfer", "error", err)
			render.ServiceError(w, "Transaction failed. Please try again later", http.StatusInternalServerError)
		}
	})
}

func handleTransferStatus(ts transferService, l logger.Logger) http.Handler {
	type response struct {
		ConfirmationID    uuid.UUID       `json:"confirmation_id"`
		TransactionID     uuid.UUID       `json:"transaction_id"`
		Status            string          `json:"status"`
		TransactionStatus string          `json:"transaction_status"`
		Amount            decimal.Decimal `json:"transaction_amount"`
		ExpiresAt         time.Time       `json:"expires_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		confirmationID, err := uuid.Parse(r.PathValue("confirmationID"))
		if err != nil {
			render.ServiceError(w, "Transaction confirmation not found", http.StatusNotFound)
			return
		}

		conf, transaction, err := ts.Status(r.Context(), &user, confirmationID)

		switch {
		case err == nil:
			render.JSON(w, response{
				ConfirmationID:    conf.ID,
				TransactionID:     transaction.ID,
				Status:            conf.Status,
				TransactionStatus: transaction.Status,
				Amount:            transaction.Amount,
				ExpiresAt:         conf.ExpiresAt,
			})
		case errors.Is(err, apperrors.ErrConfirmationNotFound),
			errors.Is(err, apperrors.ErrTransactionNotFound),
			errors.Is(err, apperrors.ErrCardNotFound):
			render.ServiceError(w, "Transaction confirmation not found", http.StatusNotFound)
		default:
			l.Error("Failed to get transfer status", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleResendCode(ts transferService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		confirmationID, err := uuid.Parse(r.PathValue("confirmationID"))
		if err != nil {
			render.ServiceError(w, "Transaction confirmation not found", http.StatusNotFound)
			return
		}

		err = ts.Resend(r.Context(), &user, confirmationID)

		switch {
		case err == nil:
			render.JSON(w, response{Message: "Verification code sent."})
		case errors.Is(err, apperrors.ErrConfirmationNotFound),
			errors.Is(err, apperrors.ErrTransactionNotFound),
			errors.Is(err, apperrors.ErrCardNotFound):
			render.ServiceError(w, "Transaction confirmation not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrConfirmationUsed):
			render.ServiceError(w, "Transaction confirmation has already been used", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrConfirmationExpired):
			render.ServiceError(w, "Transaction confirmation has expired", http.StatusBadRequest)
		default:
			l.Error("Failed to resend code", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
