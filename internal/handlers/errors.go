package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/handlers/render"
	"github.com/nkiryanov/savingapp/internal/logger"
)

// Query parameter that could not be parsed
type paramError struct {
	Name  string
	Value string
}

func (e *paramError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("Missing required parameter: %s", e.Name)
	}
	return fmt.Sprintf("Invalid value '%s' for parameter '%s'", e.Value, e.Name)
}

// Known service errors and how to render them.
// Empty message means the error text itself is shown
var errorResponses = []struct {
	err     error
	code    int
	message string
}{
	{apperrors.ErrAccountNotFound, http.StatusNotFound, "Account not found"},
	{apperrors.ErrAccountsNotFound, http.StatusNotFound, "No accounts found"},
	{apperrors.ErrTransactionsNotFound, http.StatusNotFound, "No transactions found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, "User not found"},

	{apperrors.ErrAccountInactive, http.StatusBadRequest, "Account is not active"},
	{apperrors.ErrBalanceInsufficient, http.StatusBadRequest, ""},
	{apperrors.ErrAmountInvalid, http.StatusBadRequest, "Amount must be greater than 0"},
	{apperrors.ErrDepositLimit, http.StatusBadRequest, "Deposit exceeds the account limit"},
	{apperrors.ErrTransactionTypeInvalid, http.StatusBadRequest, "Transaction type must be 'deposit' or 'withdraw'"},
	{apperrors.ErrNoteTooLong, http.StatusBadRequest, "Note cannot exceed 200 characters"},
	{apperrors.ErrDateRangeInvalid, http.StatusBadRequest, "'from' must not be after 'to'"},
	{apperrors.ErrSortInvalid, http.StatusBadRequest, "Unsupported sort field or direction"},
	{apperrors.ErrPasswordMismatch, http.StatusBadRequest, "Old password is incorrect"},
	{apperrors.ErrUserNotNasabah, http.StatusBadRequest, "Only 'nasabah' users are allowed here"},
	{apperrors.ErrUserHasAccounts, http.StatusBadRequest, "User still has accounts"},
	{apperrors.ErrAccountHasHistory, http.StatusBadRequest, "Account with transactions can't be deleted"},

	{apperrors.ErrUserAlreadyExists, http.StatusConflict, "User with this email already exists"},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{apperrors.ErrRefreshTokenIsUsed, http.StatusUnauthorized, "Refresh token has already been used"},
	{apperrors.ErrRefreshTokenExpired, http.StatusUnauthorized, "Refresh token has expired"},
	{apperrors.ErrRefreshTokenInvalid, http.StatusUnauthorized, "Refresh token is invalid"},
	{apperrors.ErrAccessTokenInvalid, http.StatusUnauthorized, "Unauthorized"},

	{apperrors.ErrForbidden, http.StatusForbidden, "You can only access your own accounts"},
}

// renderError writes response for err. Unknown errors are logged and hidden behind 500
func renderError(w http.ResponseWriter, l logger.Logger, err error) {
	var pe *paramError
	if errors.As(err, &pe) {
		render.ServiceError(w, pe.Error(), http.StatusBadRequest)
		return
	}

	for _, r := range errorResponses {
		if !errors.Is(err, r.err) {
			continue
		}
		message := r.message
		if message == "" {
			message = err.Error()
		}
		render.ServiceError(w, message, r.code)
		return
	}

	l.Error("Request failed", "error", err)
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}
