package ledger

import (
	"context"
	"fmt"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
)

var sortFields = map[string]bool{
	models.SortByCreatedAt:  true,
	models.SortByOccurredAt: true,
	models.SortByAmount:     true,
	models.SortByBalance:    true,
}

// Query reads transaction history. It never writes
type Query struct {
	storage repository.Storage
}

func NewQuery(storage repository.Storage) *Query {
	return &Query{storage: storage}
}

// List returns one page of account transactions.
// Empty result is reported as apperrors.ErrTransactionsNotFound
func (q *Query) List(ctx context.Context, f models.TransactionFilter) (models.Page[models.Transaction], error) {
	var page models.Page[models.Transaction]

	if f.SortBy == "" {
		f.SortBy = models.SortByCreatedAt
	}
	if !sortFields[f.SortBy] {
		return page, apperrors.ErrSortInvalid
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return page, apperrors.ErrDateRangeInvalid
	}
	f.Page = f.Page.Normalize()

	if _, err := q.storage.Account().GetByCode(ctx, f.AccountCode); err != nil {
		return page, err
	}

	page, err := q.storage.Transaction().List(ctx, f)
	if err != nil {
		return page, fmt.Errorf("listing transactions failed: %w", err)
	}

	if len(page.Items) == 0 {
		return page, apperrors.ErrTransactionsNotFound
	}

	return page, nil
}
