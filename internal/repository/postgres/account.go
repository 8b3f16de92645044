package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const accountColumns = `a.id, a.code, a.user_id, a.is_active, a.total_deposit, a.total_withdraw, a.balance, a.created_at`

const createAccount = `-- name: CreateAccount
INSERT INTO accounts AS a (code, user_id, created_at)
VALUES ($1, $2, $3)
RETURNING ` + accountColumns

// Create takes the next code from account_code_seq and inserts the row once,
// so the code is never updated after insert
func (r *AccountRepo) Create(ctx context.Context, userID uuid.UUID) (models.Account, error) {
	var seq int64
	err := r.DB.QueryRow(ctx, `SELECT nextval('account_code_seq')`).Scan(&seq)
	if err != nil {
		return models.Account{}, fmt.Errorf("db error: %w", err)
	}

	rows, _ := r.DB.Query(ctx, createAccount, models.AccountCode(seq), userID, time.Now().UTC())
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case pgErrorCode(err) == pgerrcode.ForeignKeyViolation:
		return account, apperrors.ErrUserNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const getAccountByCode = `-- name: GetAccountByCode
SELECT ` + accountColumns + ` FROM accounts a
WHERE a.code = $1
`

func (r *AccountRepo) GetByCode(ctx context.Context, code string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByCode, code)
	return collectAccount(rows)
}

const getAccountByCodeForUpdate = getAccountByCode + `FOR UPDATE`

func (r *AccountRepo) GetByCodeForUpdate(ctx context.Context, code string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByCodeForUpdate, code)
	return collectAccount(rows)
}

const updateLedger = `-- name: UpdateLedger
UPDATE accounts
SET total_deposit = $2, total_withdraw = $3, balance = $4
WHERE id = $1
`

func (r *AccountRepo) UpdateLedger(ctx context.Context, a models.Account) error {
	tag, err := r.DB.Exec(ctx, updateLedger, a.ID, a.TotalDeposit, a.TotalWithdraw, a.Balance)

	switch {
	case pgErrorCode(err) == pgerrcode.CheckViolation:
		return apperrors.ErrBalanceInsufficient
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() != 1:
		return apperrors.ErrAccountNotFound
	default:
		return nil
	}
}

const setAccountActive = `-- name: SetAccountActive
UPDATE accounts AS a
SET is_active = $2
WHERE a.code = $1
RETURNING ` + accountColumns

func (r *AccountRepo) SetActive(ctx context.Context, code string, active bool) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, setAccountActive, code, active)
	return collectAccount(rows)
}

func (r *AccountRepo) Delete(ctx context.Context, code string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM accounts WHERE code = $1`, code)

	switch {
	case pgErrorCode(err) == pgerrcode.ForeignKeyViolation:
		return apperrors.ErrAccountHasHistory
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrAccountNotFound
	default:
		return nil
	}
}

func (r *AccountRepo) List(ctx context.Context, f models.AccountFilter) (models.Page[models.Account], error) {
	f.Page = f.Page.Normalize()
	page := models.Page[models.Account]{Page: f.Page.Page, Size: f.Page.Size}

	a, where := accountWhere(f)
	from := " FROM accounts a JOIN users u ON u.id = a.user_id" + where

	err := r.DB.QueryRow(ctx, "SELECT count(*)"+from, a...).Scan(&page.TotalItems)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}
	query := "SELECT " + accountColumns + ", u.full_name" + from +
		" ORDER BY a.created_at " + direction + ", a.id " + direction +
		" LIMIT " + a.add(f.Page.Size) + " OFFSET " + a.add(f.Page.Offset())

	rows, _ := r.DB.Query(ctx, query, a...)
	page.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Account, error) {
		var acc models.Account
		err := row.Scan(
			&acc.ID, &acc.Code, &acc.UserID, &acc.IsActive,
			&acc.TotalDeposit, &acc.TotalWithdraw, &acc.Balance, &acc.CreatedAt,
			&acc.OwnerName,
		)
		return acc, err
	})
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	return page, nil
}

const accountSummary = `SELECT
	count(*),
	count(*) FILTER (WHERE a.is_active),
	count(*) FILTER (WHERE NOT a.is_active),
	COALESCE(sum(a.total_deposit), 0),
	COALESCE(sum(a.total_withdraw), 0),
	COALESCE(sum(a.balance), 0)
FROM accounts a JOIN users u ON u.id = a.user_id`

func (r *AccountRepo) Summary(ctx context.Context, f models.AccountFilter) (models.AccountSummary, error) {
	var s models.AccountSummary
	a, where := accountWhere(f)

	err := r.DB.QueryRow(ctx, accountSummary+where, a...).Scan(
		&s.Accounts, &s.ActiveAccounts, &s.InactiveAccounts,
		&s.TotalDeposit, &s.TotalWithdraw, &s.TotalBalance,
	)
	if err != nil {
		return s, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func accountWhere(f models.AccountFilter) (args, string) {
	var (
		a     args
		conds []string
	)
	if f.UserID != nil {
		conds = append(conds, "a.user_id = "+a.add(*f.UserID))
	}
	if f.Active != nil {
		conds = append(conds, "a.is_active = "+a.add(*f.Active))
	}
	if f.Code != "" {
		conds = append(conds, "a.code = "+a.add(f.Code))
	}
	if f.Keyword != "" {
		conds = append(conds, "u.full_name ILIKE "+a.add(containsPattern(f.Keyword)))
	}

	if len(conds) == 0 {
		return a, ""
	}
	return a, " WHERE " + strings.Join(conds, " AND ")
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Code, &a.UserID, &a.IsActive, &a.TotalDeposit, &a.TotalWithdraw, &a.Balance, &a.CreatedAt)
	return a, err
}
