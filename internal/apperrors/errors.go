package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserNotNasabah     = errors.New("user is not a nasabah")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("old password does not match")
	ErrUserHasAccounts    = errors.New("user still owns accounts")

	ErrAccessTokenInvalid  = errors.New("access token is invalid")
	ErrRefreshTokenInvalid = errors.New("refresh token is invalid")
	ErrRefreshTokenIsUsed  = errors.New("refresh token is used")
	ErrRefreshTokenExpired = errors.New("refresh token is expired")

	ErrForbidden = errors.New("access to the account is forbidden")

	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountsNotFound    = errors.New("no accounts found")
	ErrAccountInactive     = errors.New("account is not active")
	ErrAccountHasHistory   = errors.New("account has transactions")
	ErrBalanceInsufficient = errors.New("insufficient balance")
	ErrDepositLimit        = errors.New("deposit exceeds account limit")

	ErrAmountInvalid          = errors.New("amount must be greater than zero")
	ErrTransactionTypeInvalid = errors.New("transaction type must be deposit or withdraw")
	ErrNoteTooLong            = errors.New("note is too long")
	ErrTransactionsNotFound   = errors.New("no transactions found")

	ErrDateRangeInvalid = errors.New("'from' must not be after 'to'")
	ErrSortInvalid      = errors.New("sort field or direction is not supported")
)
