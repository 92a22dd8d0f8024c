package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/handlers/render"
	"github.com/icyeza/bkvc/internal/handlers/userctx"
	"github.com/icyeza/bkvc/internal/logger"
	"github.com/icyeza/bkvc/internal/models"
	"github.com/icyeza/bkvc/internal/service/card"
)

type cardResponse struct {
	Number     string          `json:"card_number"`
	Name       string          `json:"card_name"`
	Type       string          `json:"card_type"`
	Status     string          `json:"card_status"`
	ExpireDate time.Time       `json:"expire_date"`
	Limit      decimal.Decimal `json:"limit_money"`
	Balance    decimal.Decimal `json:"balance"`
}

func maskedCardResponse(c models.Card) cardResponse {
	return cardResponse{
		Number:     c.Masked(),
		Name:       c.Name,
		Type:       c.Type,
		Status:     c.Status,
		ExpireDate: c.ExpireDate,
		Limit:      c.Limit,
		Balance:    c.Balance,
	}
}

func handleCreateCard(cs cardService, l logger.Logger) http.Handler {
	type request struct {
		Name    string          `json:"card_name" validate:"required"`
		Type    string          `json:"card_type" validate:"omitempty,oneof=debit credit"`
		Limit   decimal.Decimal `json:"limit_money" validate:"required"`
		Balance decimal.Decimal `json:"balance"`
	}
	// Full number and cvv are shown once, on creation only
	type response struct {
		cardResponse
		CVV string `json:"cvv"`
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

		created, err := cs.Create(r.Context(), &user, card.CreateParams{
			Name:    data.Name,
			Type:    data.Type,
			Limit:   data.Limit,
			Balance: data.Balance,
		})

		switch {
		case err == nil:
			res := response{cardResponse: maskedCardResponse(created), CVV: created.CVV}
			res.Number = created.Number
			render.JSONWithStatus(w, res, http.StatusCreated)
		case errors.Is(err, apperrors.ErrAmountInvalid):
			render.ServiceError(w, "Invalid limit or balance", http.StatusBadRequest)
		default:
			l.Error("Failed to create card", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListCards(cs cardService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		cards, err := cs.List(r.Context(), &user)
		if err != nil {
			l.Error("Failed to list cards", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := make([]cardResponse, 0, len(cards))
		for _, c := range cards {
			res = append(res, maskedCardResponse(c))
		}
		render.JSON(w, res)
	})
}

func handleDeposit(cs cardService, l logger.Logger) http.Handler {
	type request struct {
		Amount decimal.Decimal `json:"amount" validate:"required"`
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

		updated, err := cs.Deposit(r.Context(), &user, r.PathValue("number"), data.Amount)

		switch {
		case err == nil:
			render.JSON(w, maskedCardResponse(updated))
		case errors.Is(err, apperrors.ErrAmountInvalid):
			render.ServiceError(w, "Amount must be positive", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCardNotFound), errors.Is(err, apperrors.ErrCardNotOwned):
			// Don't reveal foreign cards
			render.ServiceError(w, "Card not found", http.StatusNotFound)
		default:
			l.Error("Failed to deposit", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
