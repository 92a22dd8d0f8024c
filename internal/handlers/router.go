package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/icyeza/bkvc/internal/handlers/middleware"
	"github.com/icyeza/bkvc/internal/logger"
	"github.com/icyeza/bkvc/internal/models"
	"github.com/icyeza/bkvc/internal/service/auth"
	"github.com/icyeza/bkvc/internal/service/card"
	"github.com/icyeza/bkvc/internal/service/transfer"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	cardService cardService,
	transferService transferService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiv1 := http.NewServeMux()

	apiv1.Handle("POST /user/signup", handleSignup(authService, logger))
	apiv1.Handle("POST /user/login", handleLogin(authService, logger))
	apiv1.Handle("POST /user/refresh", handleTokenRefresh(authService, logger))

	apiv1.Handle("POST /card", withAuth(handleCreateCard(cardService, logger)))
	apiv1.Handle("GET /card", withAuth(handleListCards(cardService, logger)))
	apiv1.Handle("POST /card/{number}/deposit", withAuth(handleDeposit(cardService, logger)))

	apiv1.Handle("POST /transaction", withAuth(handleInitiateTransfer(transferService, logger)))
	apiv1.Handle("POST /transaction/{confirmationID}/verify_code", withAuth(handleVerifyTransfer(transferService, logger)))
	apiv1.Handle("GET /transaction/{confirmationID}", withAuth(handleTransferStatus(transferService, logger)))
	apiv1.Handle("POST /transaction/{confirmationID}/resend", withAuth(handleResendCode(transferService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", apiv1))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user. Has to return apperrors.ErrUserAlreadyExists on duplicates
	Register(ctx context.Context, arg auth.RegisterParams) (models.User, models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound on unknown user or bad password
	Login(ctx context.Context, username string, password string) (models.User, models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type cardService interface {
	Create(ctx context.Context, user *models.User, arg card.CreateParams) (models.Card, error)
	List(ctx context.Context, user *models.User) ([]models.Card, error)
	Deposit(ctx context.Context, user *models.User, number string, amount decimal.Decimal) (models.Card, error)
}

type transferService interface {
	Initiate(ctx context.Context, user *models.User, senderNumber string, receiverNumber string, amount decimal.Decimal) (models.Confirmation, error)
	Verify(ctx context.Context, confirmationID uuid.UUID, code string) (transfer.VerifyResult, error)
	Status(ctx context.Context, user *models.User, confirmationID uuid.UUID) (models.Confirmation, models.Transaction, error)
	Resend(ctx context.Context, user *models.User, confirmationID uuid.UUID) error
}
