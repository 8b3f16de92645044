package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, seq, account_code, type, amount, balance, note, occurred_at, created_at`

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, account_code, type, amount, balance, note, occurred_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + transactionColumns

func (r *TransactionRepo) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		t.ID, t.AccountCode, string(t.Type), t.Amount, t.Balance, t.Note, t.OccurredAt, t.CreatedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return created, nil
	case pgErrorCode(err) == pgerrcode.ForeignKeyViolation:
		return created, apperrors.ErrAccountNotFound
	default:
		return created, fmt.Errorf("db error: %w", err)
	}
}

// Sortable columns; values are trusted SQL identifiers
var transactionSortColumns = map[string]string{
	models.SortByCreatedAt:  "created_at",
	models.SortByOccurredAt: "occurred_at",
	models.SortByAmount:     "amount",
	models.SortByBalance:    "balance",
}

func (r *TransactionRepo) List(ctx context.Context, f models.TransactionFilter) (models.Page[models.Transaction], error) {
	f.Page = f.Page.Normalize()
	page := models.Page[models.Transaction]{Page: f.Page.Page, Size: f.Page.Size}

	if f.SortBy == "" {
		f.SortBy = models.SortByCreatedAt
	}
	column, ok := transactionSortColumns[f.SortBy]
	if !ok {
		return page, apperrors.ErrSortInvalid
	}

	var (
		a     args
		conds = []string{"account_code = " + a.add(f.AccountCode)}
	)
	if f.From != nil {
		conds = append(conds, "occurred_at >= "+a.add(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "occurred_at <= "+a.add(*f.To))
	}
	if f.Keyword != "" {
		conds = append(conds, "note ILIKE "+a.add(containsPattern(f.Keyword)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	err := r.DB.QueryRow(ctx, "SELECT count(*) FROM transactions"+where, a...).Scan(&page.TotalItems)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}
	query := "SELECT " + transactionColumns + " FROM transactions" + where +
		" ORDER BY " + column + " " + direction + ", seq " + direction +
		" LIMIT " + a.add(f.Page.Size) + " OFFSET " + a.add(f.Page.Offset())

	rows, _ := r.DB.Query(ctx, query, a...)
	page.Items, err = pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	return page, nil
}

const transactionTotals = `SELECT
	COALESCE(sum(amount) FILTER (WHERE type = 'deposit'), 0),
	COALESCE(sum(amount) FILTER (WHERE type = 'withdraw'), 0),
	count(*)
FROM transactions
WHERE account_code = ANY($1)
	AND ($2::timestamptz IS NULL OR occurred_at >= $2)
	AND ($3::timestamptz IS NULL OR occurred_at <= $3)
`

func (r *TransactionRepo) Totals(ctx context.Context, codes []string, from, to *time.Time) (models.TransactionTotals, error) {
	var t models.TransactionTotals
	err := r.DB.QueryRow(ctx, transactionTotals, codes, from, to).Scan(&t.Deposit, &t.Withdraw, &t.Count)
	if err != nil {
		return t, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var (
		t  models.Transaction
		tt string
	)
	err := row.Scan(&t.ID, &t.Seq, &t.AccountCode, &tt, &t.Amount, &t.Balance, &t.Note, &t.OccurredAt, &t.CreatedAt)
	t.Type = models.TransactionType(tt)
	return t, err
}
