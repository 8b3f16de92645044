package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/handlers/render"
	"github.com/nkiryanov/savingapp/internal/models"
)

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      string(u.Role),
		Address:   u.Address,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

type accountResponse struct {
	AccountCode   string    `json:"account_code"`
	UserID        uuid.UUID `json:"user_id"`
	OwnerName     string    `json:"owner_name,omitempty"`
	IsActive      bool      `json:"is_active"`
	Balance       int64     `json:"balance"`
	TotalDeposit  int64     `json:"total_deposit"`
	TotalWithdraw int64     `json:"total_withdraw"`
	CreatedAt     time.Time `json:"created_at"`
}

func newAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		AccountCode:   a.Code,
		UserID:        a.UserID,
		OwnerName:     a.OwnerName,
		IsActive:      a.IsActive,
		Balance:       a.Balance,
		TotalDeposit:  a.TotalDeposit,
		TotalWithdraw: a.TotalWithdraw,
		CreatedAt:     a.CreatedAt,
	}
}

type transactionResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountCode   string    `json:"account_code"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	Balance       int64     `json:"balance"`
	Note          string    `json:"note,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func newTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		TransactionID: t.ID,
		AccountCode:   t.AccountCode,
		Type:          string(t.Type),
		Amount:        t.Amount,
		Balance:       t.Balance,
		Note:          t.Note,
		OccurredAt:    t.OccurredAt,
		CreatedAt:     t.CreatedAt,
	}
}

// Convert page items and build pagination metadata. Total is the number of pages
func mapPage[T, R any](p models.Page[T], fn func(T) R) ([]R, render.Metadata) {
	items := make([]R, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, fn(item))
	}
	return items, render.Metadata{Page: p.Page, Size: p.Size, Total: p.TotalPages()}
}
