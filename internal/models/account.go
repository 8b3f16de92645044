package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const accountCodeFormat = "ACC-%06d"

// Format account code from sequence value: 1 -> ACC-000001
func AccountCode(seq int64) string {
	return fmt.Sprintf(accountCodeFormat, seq)
}

type Account struct {
	ID            int64
	Code          string
	UserID        uuid.UUID
	IsActive      bool
	TotalDeposit  int64
	TotalWithdraw int64
	Balance       int64
	CreatedAt     time.Time

	// Owner full name, filled by list queries only
	OwnerName string
}

// Apply returns the account with aggregates changed by the transaction.
// Amount and sufficiency must be checked by the caller.
func (a Account) Apply(t TransactionType, amount int64) Account {
	switch t {
	case TransactionTypeDeposit:
		a.TotalDeposit += amount
		a.Balance += amount
	case TransactionTypeWithdraw:
		a.TotalWithdraw += amount
		a.Balance -= amount
	}
	return a
}

type AccountFilter struct {
	UserID  *uuid.UUID
	Active  *bool
	Code    string
	Keyword string // owner full name, case-insensitive
	Desc    bool
	Page    PageRequest
}

// Aggregated numbers over the set of accounts
type AccountSummary struct {
	Accounts         int64
	ActiveAccounts   int64
	InactiveAccounts int64
	TotalDeposit     int64
	TotalWithdraw    int64
	TotalBalance     int64
}
