// Package ledger posts deposit and withdraw transactions and reads account history.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
)

type PostParams struct {
	AccountCode string
	Type        models.TransactionType
	Amount      int64
	Note        string
}

func (p PostParams) validate() error {
	switch {
	case !p.Type.Valid():
		return apperrors.ErrTransactionTypeInvalid
	case p.Amount <= 0:
		return apperrors.ErrAmountInvalid
	case utf8.RuneCountInString(p.Note) > models.NoteMaxLength:
		return apperrors.ErrNoteTooLong
	default:
		return nil
	}
}

// Poster applies transactions to accounts.
// Every post runs in one db transaction holding the account row lock,
// so the sufficiency check and the balance write see the same balance.
type Poster struct {
	storage repository.Storage
	logger  logger.Logger
	now     func() time.Time
}

func NewPoster(storage repository.Storage, l logger.Logger) *Poster {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Poster{
		storage: storage,
		logger:  l.With("component", "ledger"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (p *Poster) Post(ctx context.Context, params PostParams) (models.Transaction, error) {
	var posted models.Transaction

	if err := params.validate(); err != nil {
		return posted, err
	}

	err := p.storage.InTx(ctx, func(s repository.Storage) error {
		account, err := s.Account().GetByCodeForUpdate(ctx, params.AccountCode)
		if err != nil {
			return err
		}

		if !account.IsActive {
			return apperrors.ErrAccountInactive
		}
		// Balance never exceeds total deposit, so this bounds both
		if params.Type == models.TransactionTypeDeposit && params.Amount > math.MaxInt64-account.TotalDeposit {
			return apperrors.ErrDepositLimit
		}
		if params.Type == models.TransactionTypeWithdraw && account.Balance < params.Amount {
			return fmt.Errorf("%w: current balance %d, requested %d",
				apperrors.ErrBalanceInsufficient, account.Balance, params.Amount)
		}

		account = account.Apply(params.Type, params.Amount)
		now := p.now()

		posted, err = s.Transaction().Create(ctx, models.Transaction{
			ID:          uuid.New(),
			AccountCode: account.Code,
			Type:        params.Type,
			Amount:      params.Amount,
			Balance:     account.Balance,
			Note:        params.Note,
			OccurredAt:  now,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}

		return s.Account().UpdateLedger(ctx, account)
	})

	switch {
	case err == nil:
		p.logger.Info("transaction posted",
			"account_code", posted.AccountCode,
			"type", posted.Type,
			"amount", posted.Amount,
			"balance", posted.Balance,
		)
		return posted, nil
	case isRejection(err):
		p.logger.Warn("transaction rejected", "account_code", params.AccountCode, "type", params.Type, "error", err)
		return models.Transaction{}, err
	default:
		return models.Transaction{}, fmt.Errorf("posting transaction failed: %w", err)
	}
}

func isRejection(err error) bool {
	return errors.Is(err, apperrors.ErrAccountNotFound) ||
		errors.Is(err, apperrors.ErrAccountInactive) ||
		errors.Is(err, apperrors.ErrBalanceInsufficient) ||
		errors.Is(err, apperrors.ErrDepositLimit)
}
