package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	Create(ctx context.Context, user models.User) (models.User, error)

	// Get user by it's id or email (case-insensitive)
	// If user not found must return apperrors.ErrUserNotFound
	GetByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)

	// Update profile fields: full name, email, address, phone
	Update(ctx context.Context, user models.User) (models.User, error)
	SetPassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Delete user; apperrors.ErrUserNotFound if nothing deleted
	Delete(ctx context.Context, userID uuid.UUID) error

	List(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

// Account repository interface
type AccountRepo interface {
	// Create account with the next code from the account code sequence
	Create(ctx context.Context, userID uuid.UUID) (models.Account, error)

	// If account not found must return apperrors.ErrAccountNotFound
	GetByCode(ctx context.Context, code string) (models.Account, error)

	// Same as GetByCode but locks the row until the surrounding transaction ends.
	// Must be called inside Storage.InTx
	GetByCodeForUpdate(ctx context.Context, code string) (models.Account, error)

	// Persist balance and aggregates of the account
	UpdateLedger(ctx context.Context, account models.Account) error

	SetActive(ctx context.Context, code string, active bool) (models.Account, error)

	// Delete account without transactions
	// apperrors.ErrAccountHasHistory if transactions reference it
	Delete(ctx context.Context, code string) error

	List(ctx context.Context, filter models.AccountFilter) (models.Page[models.Account], error)
	Summary(ctx context.Context, filter models.AccountFilter) (models.AccountSummary, error)
}

// Transaction repository interface
// Transactions are append-only: there is no way to update or delete them
type TransactionRepo interface {
	Create(ctx context.Context, t models.Transaction) (models.Transaction, error)
	List(ctx context.Context, filter models.TransactionFilter) (models.Page[models.Transaction], error)

	// Deposit and withdraw sums of the accounts transactions within optional bounds
	Totals(ctx context.Context, codes []string, from, to *time.Time) (models.TransactionTotals, error)
}

// Revoked token registry
type RevocationRepo interface {
	// Mark token revoked until its expiration
	// If token revoked already must return apperrors.ErrRefreshTokenIsUsed
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error

	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// Delete entries expired before the moment
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Storage groups repositories sharing one connection or transaction
type Storage interface {
	User() UserRepo
	Account() AccountRepo
	Transaction() TransactionRepo
	Revocation() RevocationRepo

	// Run fn in a db transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
