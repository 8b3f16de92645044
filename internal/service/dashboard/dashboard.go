// Package dashboard aggregates read-only figures for admin and nasabah home pages.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
)

type AdminDashboard struct {
	Nasabah int64
	models.AccountSummary
}

type NasabahParams struct {
	AccountCode string
	From        *time.Time
	To          *time.Time
	Active      *bool
}

type NasabahDashboard struct {
	models.AccountSummary

	// Sums over transactions within the date window
	Period models.TransactionTotals
}

type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) Admin(ctx context.Context) (AdminDashboard, error) {
	var d AdminDashboard
	var err error

	d.Nasabah, err = s.storage.User().CountByRole(ctx, models.RoleNasabah)
	if err != nil {
		return d, fmt.Errorf("counting nasabah failed: %w", err)
	}

	d.AccountSummary, err = s.storage.Account().Summary(ctx, models.AccountFilter{})
	if err != nil {
		return d, fmt.Errorf("summarizing accounts failed: %w", err)
	}

	return d, nil
}

// Nasabah dashboard over own accounts matching params.
// No matching accounts is apperrors.ErrAccountsNotFound
func (s *Service) Nasabah(ctx context.Context, userID uuid.UUID, p NasabahParams) (NasabahDashboard, error) {
	var d NasabahDashboard

	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return d, apperrors.ErrDateRangeInvalid
	}

	filter := models.AccountFilter{
		UserID: &userID,
		Active: p.Active,
		Code:   p.AccountCode,
	}

	codes, err := s.accountCodes(ctx, filter)
	if err != nil {
		return d, err
	}
	if len(codes) == 0 {
		return d, apperrors.ErrAccountsNotFound
	}

	d.AccountSummary, err = s.storage.Account().Summary(ctx, filter)
	if err != nil {
		return d, fmt.Errorf("summarizing accounts failed: %w", err)
	}

	d.Period, err = s.storage.Transaction().Totals(ctx, codes, p.From, p.To)
	if err != nil {
		return d, fmt.Errorf("summing transactions failed: %w", err)
	}

	return d, nil
}

func (s *Service) accountCodes(ctx context.Context, f models.AccountFilter) ([]string, error) {
	var codes []string
	f.Page = models.PageRequest{Page: 1, Size: models.MaxPageSize}

	for {
		page, err := s.storage.Account().List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("listing accounts failed: %w", err)
		}
		for _, a := range page.Items {
			codes = append(codes, a.Code)
		}
		if f.Page.Page >= page.TotalPages() {
			return codes, nil
		}
		f.Page.Page++
	}
}
