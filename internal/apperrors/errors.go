package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrCardNotFound  = errors.New("card not found")
	ErrCardNotOwned  = errors.New("card belongs to different user")
	ErrSameCard      = errors.New("sender and receiver cards are the same")
	ErrAmountInvalid = errors.New("amount must be positive")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLimitExceeded     = errors.New("amount exceeds card limit")

	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrConfirmationNotFound = errors.New("confirmation not found")
	ErrConfirmationUsed     = errors.New("confirmation already used")
	ErrConfirmationExpired  = errors.New("confirmation expired")
	ErrCodeInvalid          = errors.New("verification code is invalid")
)
