package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdraw
}

const NoteMaxLength = 200

// Transaction is immutable once stored.
// Balance is the account balance right after the transaction was applied.
type Transaction struct {
	ID          uuid.UUID
	Seq         int64
	AccountCode string
	Type        TransactionType
	Amount      int64
	Balance     int64
	Note        string
	OccurredAt  time.Time
	CreatedAt   time.Time
}

const (
	SortByCreatedAt  = "createdAt"
	SortByOccurredAt = "occurredAt"
	SortByAmount     = "amount"
	SortByBalance    = "balance"
)

type TransactionFilter struct {
	AccountCode string

	// Inclusive bounds on OccurredAt, nil means unbounded
	From *time.Time
	To   *time.Time

	Keyword string
	SortBy  string
	Desc    bool
	Page    PageRequest
}

// Deposit and withdraw sums over a set of transactions
type TransactionTotals struct {
	Deposit  int64
	Withdraw int64
	Count    int64
}
