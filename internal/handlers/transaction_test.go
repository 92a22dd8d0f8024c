package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/models"
	"github.com/icyeza/bkvc/internal/service/transfer"
)

func Test_TransactionHandlers(t *testing.T) {
	t.Parallel()

	conf := models.Confirmation{
		ID:            uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		TransactionID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Code:          "123456",
		Status:        models.ConfirmationPending,
		ExpiresAt:     mustParseTime("2030-01-02T15:07:05Z"),
	}

	initiateBody := `{
		"transaction_amount": 40,
		"card_sender_number": "4539578763621486",
		"card_receiver_number": "4716461583322103"
	}`

	t.Run("initiate ok", func(t *testing.T) {
		f := newFakeServices()
		f.initiate = func(ctx context.Context, user *models.User, senderNumber string, receiverNumber string, amount decimal.Decimal) (models.Confirmation, error) {
			require.Equal(t, f.user.ID, user.ID)
			require.Equal(t, "4539578763621486", senderNumber)
			require.Equal(t, "4716461583322103", receiverNumber)
			require.True(t, amount.Equal(decimal.NewFromInt(40)))
			return conf, nil
		}
		srv := newTestServer(t, f)

		code, body := doRequest(t, srv, http.MethodPost, "/api/v1/transaction", initiateBody)

		require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"message": "Transaction initiated successfully.",
				"transaction_id": "22222222-2222-2222-2222-222222222222",
				"confirmation_id": "11111111-1111-1111-1111-111111111111",
				"expires_at": "2030-01-02T15:07:05Z"
			}`, body)
	})

	t.Run("initiate rejects non luhn numbers", func(t *testing.T) {
		srv := newTestServer(t, newFakeServices())

		body := `{
			"transaction_amount": 40,
			"card_sender_number": "4539578763621487",
			"card_receiver_number": "4716461583322103"
		}`
		code, got := doRequest(t, srv, http.MethodPost, "/api/v1/transaction", body)

		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, got, "validation_failed")
		require.Contains(t, got, "Invalid card number")
	})

	t.Run("initiate error mapping", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			wantCode int
		}{
			{"same card", apperrors.ErrSameCard, http.StatusBadRequest},
			{"card not found", apperrors.ErrCardNotFound, http.StatusNotFound},
			{"card not owned", apperrors.ErrCardNotOwned, http.StatusForbidden},
			{"amount invalid", apperrors.ErrAmountInvalid, http.StatusBadRequest},
			{"insufficient funds", apperrors.ErrInsufficientFunds, http.StatusBadRequest},
			{"limit exceeded", apperrors.ErrLimitExceeded, http.StatusBadRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFakeServices()
				f.initiate = func(ctx context.Context, user *models.User, senderNumber string, receiverNumber string, amount decimal.Decimal) (models.Confirmation, error) {
					return models.Confirmation{}, tt.err
				}
				srv := newTestServer(t, f)

				code, _ := doRequest(t, srv, http.MethodPost, "/api/v1/transaction", initiateBody)

				require.Equal(t, tt.wantCode, code)
			})
		}
	})

	t.Run("verify ok", func(t *testing.T) {
		f := newFakeServices()
		f.verify = func(ctx context.Context, confirmationID uuid.UUID, code string) (transfer.VerifyResult, error) {
			require.Equal(t, conf.ID, confirmationID)
			require.Equal(t, "123456", code)
			return transfer.VerifyResult{
				Transaction: models.Transaction{
					ID:     conf.TransactionID,
					Status: models.TransactionApproved,
					Amount: decimal.NewFromInt(40),
				},
			}, nil
		}
		srv := newTestServer(t, f)

		code, body := doRequest(t, srv, http.MethodPost, "/api/v1/transaction/"+conf.ID.String()+"/verify_code", `{"code": "123456"}`)

		require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"message": "Transaction successful.",
				"transaction_id": "22222222-2222-2222-2222-222222222222",
				"status": "approved"
			}`, body)
	})

	t.Run("verify bad confirmation id", func(t *testing.T) {
		srv := newTestServer(t, newFakeServices())

		code, body := doRequest(t, srv, http.MethodPost, "/api/v1/transaction/not-a-uuid/verify_code", `{"code": "123456"}`)

		require.Equal(t, http.StatusNotFound, code)
		require.Contains(t, body, "Transaction confirmation not found")
	})

	t.Run("verify error mapping", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			wantCode int
			wantText string
		}{
			{"not found", apperrors.ErrConfirmationNotFound, http.StatusNotFound, "Transaction confirmation not found"},
			{"used", apperrors.ErrConfirmationUsed, http.StatusBadRequest, "already been used"},
			{"expired", apperrors.ErrConfirmationExpired, http.StatusBadRequest, "expired"},
			{"wrong code", apperrors.ErrCodeInvalid, http.StatusBadRequest, "Invalid verification code"},
			{"insufficient funds", apperrors.ErrInsufficientFunds, http.StatusBadRequest, "insufficient funds"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFakeServices()
				f.verify = func(ctx context.Context, confirmationID uuid.UUID, code string) (transfer.VerifyResult, error) {
					return transfer.VerifyResult{}, tt.err
				}
				srv := newTestServer(t, f)

				code, body := doRequest(t, srv, http.MethodPost, "/api/v1/transaction/"+conf.ID.String()+"/verify_code", `{"code": "123456"}`)

				require.Equal(t, tt.wantCode, code)
				require.Contains(t, body, tt.wantText)
			})
		}
	})

	t.Run("status ok", func(t *testing.T) {
		f := newFakeServices()
		f.status = func(ctx context.Context, user *models.User, confirmationID uuid.UUID) (models.Confirmation, models.Transaction, error) {
			require.Equal(t, conf.ID, confirmationID)
			return conf, models.Transaction{
				ID:        conf.TransactionID,
				Status:    models.TransactionPending,
				Amount:    decimal.NewFromInt(40),
				CreatedAt: time.Now(),
			}, nil
		}
		srv := newTestServer(t, f)

		code, body := doRequest(t, srv, http.MethodGet, "/api/v1/transaction/"+conf.ID.String(), "")

		require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"confirmation_id": "11111111-1111-1111-1111-111111111111",
				"transaction_id": "22222222-2222-2222-2222-222222222222",
				"status": "pending",
				"transaction_status": "pending",
				"transaction_amount": "40",
				"expires_at": "2030-01-02T15:07:05Z"
			}`, body)
	})

	t.Run("status foreign confirmation", func(t *testing.T) {
		f := newFakeServices()
		f.status = func(ctx context.Context, user *models.User, confirmationID uuid.UUID) (models.Confirmation, models.Transaction, error) {
			return models.Confirmation{}, models.Transaction{}, apperrors.ErrConfirmationNotFound
		}
		srv := newTestServer(t, f)

		code, body := doRequest(t, srv, http.MethodGet, "/api/v1/transaction/"+conf.ID.String(), "")

		require.Equal(t, http.StatusNotFound, code)
		require.Contains(t, body, "Transaction confirmation not found")
	})

	t.Run("resend ok", func(t *testing.T) {
		f := newFakeServices()
		f.resend = func(ctx context.Context, user *models.User, confirmationID uuid.UUID) error {
			require.Equal(t, conf.ID, confirmationID)
			return nil
		}
		srv := newTestServer(t, f)

		code, body := doRequest(t, srv, http.MethodPost, "/api/v1/transaction/"+conf.ID.String()+"/resend", "")

		require.Equal(t, http.StatusOK, code)
		require.JSONEq(t, `{"message": "Verification code sent."}`, body)
	})

	t.Run("resend on settled confirmation", func(t *testing.T) {
		f := newFakeServices()
		f.resend = func(ctx context.Context, user *models.User, confirmationID uuid.UUID) error {
			return apperrors.ErrConfirmationUsed
		}
		srv := newTestServer(t, f)

		code, body := doRequest(t, srv, http.MethodPost, "/api/v1/transaction/"+conf.ID.String()+"/resend", "")

		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, body, "already been used")
	})
}
