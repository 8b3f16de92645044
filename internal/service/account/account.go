package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
)

type ListParams struct {
	UserID  *uuid.UUID // owner, nil means any
	Keyword string
	Desc    bool
	Page    models.PageRequest
}

type AccountService struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *AccountService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AccountService{
		storage: storage,
		logger:  l.With("component", "account"),
	}
}

// Open a new active account with zero aggregates for the nasabah
func (s *AccountService) Create(ctx context.Context, userID uuid.UUID) (models.Account, error) {
	var account models.Account

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		owner, err := tx.User().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if owner.Role != models.RoleNasabah {
			return apperrors.ErrUserNotNasabah
		}

		account, err = tx.Account().Create(ctx, userID)
		account.OwnerName = owner.FullName
		return err
	})
	if err != nil {
		return models.Account{}, err
	}

	s.logger.Info("account opened", "account_code", account.Code, "user_id", userID)
	return account, nil
}

// List all accounts. Empty page is apperrors.ErrAccountsNotFound
func (s *AccountService) List(ctx context.Context, p ListParams) (models.Page[models.Account], error) {
	return s.list(ctx, models.AccountFilter{
		UserID:  p.UserID,
		Keyword: p.Keyword,
		Desc:    p.Desc,
		Page:    p.Page,
	})
}

// List accounts owned by the user, oldest first
func (s *AccountService) ListOwn(ctx context.Context, userID uuid.UUID, page models.PageRequest) (models.Page[models.Account], error) {
	return s.list(ctx, models.AccountFilter{
		UserID: &userID,
		Page:   page,
	})
}

func (s *AccountService) list(ctx context.Context, f models.AccountFilter) (models.Page[models.Account], error) {
	page, err := s.storage.Account().List(ctx, f)
	if err != nil {
		return page, fmt.Errorf("listing accounts failed: %w", err)
	}
	if len(page.Items) == 0 {
		return page, apperrors.ErrAccountsNotFound
	}
	return page, nil
}

// Activate or deactivate account. Inactive accounts refuse new transactions
func (s *AccountService) SetStatus(ctx context.Context, code string, active bool) (models.Account, error) {
	account, err := s.storage.Account().SetActive(ctx, code, active)
	if err != nil {
		return account, err
	}

	s.logger.Info("account status changed", "account_code", code, "active", active)
	return account, nil
}

// Delete account that has no transactions yet
func (s *AccountService) Delete(ctx context.Context, code string) error {
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		return tx.Account().Delete(ctx, code)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", "account_code", code)
	return nil
}
