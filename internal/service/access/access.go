// Package access decides whether a user may act on an account.
package access

import (
	"context"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
)

type Checker struct {
	accounts repository.AccountRepo
}

func NewChecker(accounts repository.AccountRepo) *Checker {
	return &Checker{accounts: accounts}
}

// CheckAccount returns the account when staff, admin or the account owner asks for it.
// Anybody else gets apperrors.ErrForbidden
func (c *Checker) CheckAccount(ctx context.Context, user models.User, code string) (models.Account, error) {
	account, err := c.accounts.GetByCode(ctx, code)
	if err != nil {
		return account, err
	}

	if !Allowed(user, account) {
		return models.Account{}, apperrors.ErrForbidden
	}

	return account, nil
}

func Allowed(user models.User, account models.Account) bool {
	return user.Role.Privileged() || account.UserID == user.ID
}
